package app

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"talky/internal/config"
	"talky/internal/store"
	"talky/internal/types"
)

const storeTimeout = 4 * time.Second

func loadSessionsCmd(sessions store.SessionStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		out, err := sessions.List(ctx)
		return sessionsLoadedMsg{sessions: out, err: err}
	}
}

func loadAppStateCmd(states store.AppStateStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		state, ok, err := states.Load(ctx)
		return appStateLoadedMsg{state: state, ok: ok, err: err}
	}
}

func saveAppStateCmd(states store.AppStateStore, state types.AppState) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return appStateSavedMsg{err: states.Save(ctx, state)}
	}
}

func loadNotesCmd(notes store.NoteStore, sessionID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		out, err := notes.List(ctx, store.NoteFilter{SessionID: sessionID})
		return notesLoadedMsg{notes: out, err: err}
	}
}

func saveNoteCmd(notes store.NoteStore, note *types.Note) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		saved, err := notes.Upsert(ctx, note)
		return noteSavedMsg{note: saved, err: err}
	}
}

// reloadSettingsCmd re-reads the settings file; the model re-resolves the
// effective environment when the result arrives.
func reloadSettingsCmd() tea.Cmd {
	return func() tea.Msg {
		settings, err := config.LoadSettings()
		return settingsReloadedMsg{settings: settings, err: err}
	}
}
