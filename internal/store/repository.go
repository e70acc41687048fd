package store

import (
	"context"
	"errors"

	"talky/internal/types"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoteNotFound    = errors.New("note not found")
)

type NoteFilter struct {
	SessionID string
}

// SessionStore holds recorded sessions, newest last (list order is
// creation order; the sidebar decides presentation order).
type SessionStore interface {
	List(ctx context.Context) ([]*types.Session, error)
	Get(ctx context.Context, id string) (*types.Session, bool, error)
	Upsert(ctx context.Context, session *types.Session) (*types.Session, error)
	Delete(ctx context.Context, id string) error
}

type NoteStore interface {
	List(ctx context.Context, filter NoteFilter) ([]*types.Note, error)
	Upsert(ctx context.Context, note *types.Note) (*types.Note, error)
	Delete(ctx context.Context, id string) error
}

type AppStateStore interface {
	Load(ctx context.Context) (types.AppState, bool, error)
	Save(ctx context.Context, state types.AppState) error
}

type Repository interface {
	Sessions() SessionStore
	Notes() NoteStore
	AppState() AppStateStore
	Close() error
}
