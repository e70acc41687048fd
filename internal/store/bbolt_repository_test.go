package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"talky/internal/types"
)

func newTestRepository(t *testing.T) Repository {
	t.Helper()
	repo, err := NewBboltRepository(filepath.Join(t.TempDir(), "talky.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	created, err := repo.Sessions().Upsert(ctx, &types.Session{
		Title:         "standup",
		Status:        types.SessionStatusReady,
		EnvironmentID: "work",
		Transcript:    "raw words",
		Tags:          []string{"daily"},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	got, ok, err := repo.Sessions().Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || got == nil {
		t.Fatalf("expected session to exist")
	}
	if got.EnvironmentID != "work" {
		t.Fatalf("unexpected environment id %q", got.EnvironmentID)
	}

	got.Tags[0] = "mutated"
	again, ok, err := repo.Sessions().Get(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("second get: %v ok=%v", err, ok)
	}
	if again.Tags[0] != "daily" {
		t.Fatalf("store leaked internal state")
	}

	sessions, err := repo.Sessions().List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}

	if err := repo.Sessions().Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Sessions().Delete(ctx, created.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestNoteStoreFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	first, err := repo.Notes().Upsert(ctx, &types.Note{SessionID: "s1", Body: "one"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if _, err := repo.Notes().Upsert(ctx, &types.Note{SessionID: "s2", Body: "two"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Notes().Upsert(ctx, &types.Note{SessionID: "s1", Body: "three"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	notes, err := repo.Notes().List(ctx, NoteFilter{SessionID: "s1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes for s1, got %d", len(notes))
	}
	if notes[0].ID != second.ID && notes[0].ID != first.ID {
		t.Fatalf("unexpected note order")
	}

	all, err := repo.Notes().List(ctx, NoteFilter{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 notes, got %d", len(all))
	}

	if err := repo.Notes().Delete(ctx, "missing"); !errors.Is(err, ErrNoteNotFound) {
		t.Fatalf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestAppStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	_, ok, err := repo.AppState().Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if ok {
		t.Fatalf("expected no app state yet")
	}

	want := types.AppState{
		SelectedSessionID: "s1",
		ViewMode:          types.ViewModeEnhanced,
		SidebarCollapsed:  true,
	}
	if err := repo.AppState().Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := repo.AppState().Load(ctx)
	if err != nil || !ok {
		t.Fatalf("reload: %v ok=%v", err, ok)
	}
	if got != want {
		t.Fatalf("unexpected state: %+v", got)
	}
}

func TestNewRecordIDShape(t *testing.T) {
	for _, prefix := range []string{"ses", "note"} {
		id := newRecordID(prefix)
		if !strings.HasPrefix(id, prefix+"_") {
			t.Fatalf("id %q missing %q separator", id, prefix+"_")
		}
		if len(id) == len(prefix)+1 {
			t.Fatalf("id %q has no suffix", id)
		}
	}
}
