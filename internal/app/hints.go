package app

import (
	"runtime"
	"strings"
)

// Hint is one entry of the footer hint line.
type Hint struct {
	Command string
	Label   string
}

func defaultHints() []Hint {
	return []Hint{
		{Command: KeyCommandNewNote, Label: "new note"},
		{Command: KeyCommandFocusSearch, Label: "search"},
		{Command: KeyCommandFocusChat, Label: "chat"},
		{Command: KeyCommandToggleFind, Label: "find"},
		{Command: KeyCommandOpenSettings, Label: "settings"},
		{Command: KeyCommandDismiss, Label: "dismiss"},
	}
}

// renderHints renders the footer hint line, spelling the primary modifier
// with the platform's glyph. Presentation only: dispatch accepts control
// and command interchangeably everywhere.
func renderHints(hints []Hint, keys *Keybindings, goos string) string {
	parts := make([]string, 0, len(hints))
	for _, hint := range hints {
		chord := keys.ChordFor(hint.Command)
		parts = append(parts, displayChord(chord, goos)+" "+hint.Label)
	}
	return strings.Join(parts, " · ")
}

func displayChord(chord string, goos string) string {
	if !strings.HasPrefix(chord, "mod+") {
		return chord
	}
	rest := strings.TrimPrefix(chord, "mod+")
	if goos == "darwin" {
		return "⌘" + rest
	}
	return "ctrl+" + rest
}

func platformGOOS() string {
	return runtime.GOOS
}
