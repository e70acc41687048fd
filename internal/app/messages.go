package app

import (
	"talky/internal/config"
	"talky/internal/types"
)

type sessionsLoadedMsg struct {
	sessions []*types.Session
	err      error
}

type appStateLoadedMsg struct {
	state types.AppState
	ok    bool
	err   error
}

type appStateSavedMsg struct {
	err error
}

type notesLoadedMsg struct {
	notes []*types.Note
	err   error
}

type noteSavedMsg struct {
	note *types.Note
	err  error
}

type settingsReloadedMsg struct {
	settings config.Settings
	err      error
}

// focusMarkerMsg is the deferred continuation behind the focus-after-layout
// rule: emitted by the dispatcher, delivered on the next update cycle.
type focusMarkerMsg struct {
	marker string
}
