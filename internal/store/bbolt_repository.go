package store

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"talky/internal/types"
)

var (
	bucketSessions = []byte("sessions")
	bucketNotes    = []byte("notes")
	bucketAppState = []byte("app_state")
	keyAppState    = []byte("state")
)

type bboltRepository struct {
	db       *bolt.DB
	sessions SessionStore
	notes    NoteStore
	appState AppStateStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:       db,
		sessions: &bboltSessionStore{db: db},
		notes:    &bboltNoteStore{db: db},
		appState: &bboltAppStateStore{db: db},
	}, nil
}

func (r *bboltRepository) Sessions() SessionStore {
	return r.sessions
}

func (r *bboltRepository) Notes() NoteStore {
	return r.notes
}

func (r *bboltRepository) AppState() AppStateStore {
	return r.appState
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSessions, bucketNotes, bucketAppState} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

type bboltSessionStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltSessionStore) List(ctx context.Context) ([]*types.Session, error) {
	out := make([]*types.Session, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var session types.Session
			if err := json.Unmarshal(v, &session); err != nil {
				return err
			}
			out = append(out, cloneSession(&session))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *bboltSessionStore) Get(ctx context.Context, id string) (*types.Session, bool, error) {
	var (
		out *types.Session
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(id))
		if len(raw) == 0 {
			return nil
		}
		var session types.Session
		if err := json.Unmarshal(raw, &session); err != nil {
			return err
		}
		out = cloneSession(&session)
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

func (s *bboltSessionStore) Upsert(ctx context.Context, session *types.Session) (*types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session == nil {
		return nil, errors.New("session is required")
	}
	normalized := cloneSession(session)
	if strings.TrimSpace(normalized.ID) == "" {
		normalized.ID = newRecordID("ses")
	}
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = time.Now().UTC()
	}
	normalized.UpdatedAt = time.Now().UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		raw, err := json.Marshal(normalized)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketSessions).Put([]byte(normalized.ID), raw)
	})
	if err != nil {
		return nil, err
	}
	return cloneSession(normalized), nil
}

func (s *bboltSessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)
		if b.Get([]byte(id)) == nil {
			return ErrSessionNotFound
		}
		return b.Delete([]byte(id))
	})
}

type bboltNoteStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltNoteStore) List(ctx context.Context, filter NoteFilter) ([]*types.Note, error) {
	out := make([]*types.Note, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var note types.Note
			if err := json.Unmarshal(v, &note); err != nil {
				return err
			}
			if !matchesNoteFilter(&note, filter) {
				return nil
			}
			out = append(out, cloneNote(&note))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	// Newest first for easier note triage UX.
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *bboltNoteStore) Upsert(ctx context.Context, note *types.Note) (*types.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if note == nil {
		return nil, errors.New("note is required")
	}
	normalized := cloneNote(note)
	if strings.TrimSpace(normalized.ID) == "" {
		normalized.ID = newRecordID("note")
	}
	if normalized.CreatedAt.IsZero() {
		normalized.CreatedAt = time.Now().UTC()
	}
	normalized.UpdatedAt = time.Now().UTC()
	if normalized.Tags == nil {
		normalized.Tags = []string{}
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		raw, err := json.Marshal(normalized)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketNotes).Put([]byte(normalized.ID), raw)
	})
	if err != nil {
		return nil, err
	}
	return cloneNote(normalized), nil
}

func (s *bboltNoteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketNotes)
		if b.Get([]byte(id)) == nil {
			return ErrNoteNotFound
		}
		return b.Delete([]byte(id))
	})
}

type bboltAppStateStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltAppStateStore) Load(ctx context.Context) (types.AppState, bool, error) {
	var (
		out types.AppState
		ok  bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAppState)
		if b == nil {
			return nil
		}
		raw := b.Get(keyAppState)
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		ok = true
		return nil
	})
	if err != nil {
		return types.AppState{}, false, err
	}
	return out, ok, nil
}

func (s *bboltAppStateStore) Save(ctx context.Context, state types.AppState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		raw, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketAppState).Put(keyAppState, raw)
	})
}

func matchesNoteFilter(note *types.Note, filter NoteFilter) bool {
	if note == nil {
		return false
	}
	if strings.TrimSpace(filter.SessionID) != "" && note.SessionID != strings.TrimSpace(filter.SessionID) {
		return false
	}
	return true
}

func cloneSession(session *types.Session) *types.Session {
	if session == nil {
		return nil
	}
	copy := *session
	if session.Tags != nil {
		copy.Tags = append([]string(nil), session.Tags...)
	}
	return &copy
}

func cloneNote(note *types.Note) *types.Note {
	if note == nil {
		return nil
	}
	copy := *note
	if note.Tags != nil {
		copy.Tags = append([]string(nil), note.Tags...)
	}
	return &copy
}

func newRecordID(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return prefix + "_" + time.Now().UTC().Format("20060102150405")
	}
	return prefix + "_" + hex.EncodeToString(buf)
}
