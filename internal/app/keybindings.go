package app

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// Command names for rebindable shortcuts. Chords use the platform-agnostic
// "mod+" prefix for the primary modifier (command on macOS, control
// elsewhere); how that modifier is shown to users is presentation only.
const (
	KeyCommandNewNote       = "ui.newNote"
	KeyCommandFocusSearch   = "ui.focusSearch"
	KeyCommandFocusChat     = "ui.focusChat"
	KeyCommandOpenSettings  = "ui.openSettings"
	KeyCommandViewNotes     = "ui.viewNotes"
	KeyCommandViewEnhanced  = "ui.viewEnhanced"
	KeyCommandToggleFind    = "ui.toggleFind"
	KeyCommandSessionNext   = "ui.sessionNext"
	KeyCommandSessionPrev   = "ui.sessionPrev"
	KeyCommandOpenSession   = "ui.openSession"
	KeyCommandDismiss       = "ui.dismiss"
	KeyCommandCopySessionID = "ui.copySessionID"
)

var defaultKeybindingByCommand = map[string]string{
	KeyCommandNewNote:       "mod+n",
	KeyCommandFocusSearch:   "mod+k",
	KeyCommandFocusChat:     "mod+/",
	KeyCommandOpenSettings:  "mod+,",
	KeyCommandViewNotes:     "mod+1",
	KeyCommandViewEnhanced:  "mod+2",
	KeyCommandToggleFind:    "mod+f",
	KeyCommandSessionNext:   "down",
	KeyCommandSessionPrev:   "up",
	KeyCommandOpenSession:   "enter",
	KeyCommandDismiss:       "esc",
	KeyCommandCopySessionID: "mod+y",
}

type Keybindings struct {
	byCommand map[string]string
}

type keybindingEntry struct {
	Command string `json:"command"`
	Key     string `json:"key"`
}

func DefaultKeybindings() *Keybindings {
	return NewKeybindings(nil)
}

func NewKeybindings(overrides map[string]string) *Keybindings {
	byCommand := make(map[string]string, len(defaultKeybindingByCommand))
	for command, chord := range defaultKeybindingByCommand {
		byCommand[command] = chord
	}
	for command, chord := range overrides {
		command = strings.TrimSpace(command)
		chord = normalizeChord(chord)
		if command == "" || chord == "" {
			continue
		}
		if _, ok := defaultKeybindingByCommand[command]; !ok {
			continue
		}
		byCommand[command] = chord
	}
	return &Keybindings{byCommand: byCommand}
}

// LoadKeybindings reads the overrides file. A missing or empty file yields
// the defaults. Both the array form ([{"command":..,"key":..}]) and the
// map form ({"command":"key"}) are accepted.
func LoadKeybindings(path string) (*Keybindings, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultKeybindings(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultKeybindings(), nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return DefaultKeybindings(), nil
	}
	overrides, err := parseKeybindingOverrides(data)
	if err != nil {
		return nil, err
	}
	return NewKeybindings(overrides), nil
}

// ChordFor returns the chord bound to command, falling back to the default
// binding when the command is unknown or unbound.
func (k *Keybindings) ChordFor(command string) string {
	command = strings.TrimSpace(command)
	if k != nil {
		if chord := strings.TrimSpace(k.byCommand[command]); chord != "" {
			return chord
		}
	}
	return defaultKeybindingByCommand[command]
}

func (k *Keybindings) Bindings() map[string]string {
	out := make(map[string]string, len(defaultKeybindingByCommand))
	for command := range defaultKeybindingByCommand {
		out[command] = k.ChordFor(command)
	}
	return out
}

func parseKeybindingOverrides(data []byte) (map[string]string, error) {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var entries []keybindingEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, err
		}
		out := map[string]string{}
		for _, entry := range entries {
			command := strings.TrimSpace(entry.Command)
			chord := normalizeChord(entry.Key)
			if command == "" || chord == "" {
				continue
			}
			out[command] = chord
		}
		return out, nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := map[string]string{}
	for command, chord := range raw {
		command = strings.TrimSpace(command)
		chord = normalizeChord(chord)
		if command == "" || chord == "" {
			continue
		}
		out[command] = chord
	}
	return out, nil
}

// normalizeChord lowercases the chord and folds the common spellings of
// the primary modifier into "mod".
func normalizeChord(chord string) string {
	chord = strings.ToLower(strings.TrimSpace(chord))
	for _, prefix := range []string{"cmd+", "ctrl+", "meta+", "super+"} {
		if strings.HasPrefix(chord, prefix) {
			return "mod+" + strings.TrimPrefix(chord, prefix)
		}
	}
	return chord
}

// chordParts splits a chord into its modifier requirement and base key.
func chordParts(chord string) (mod bool, base string) {
	if strings.HasPrefix(chord, "mod+") {
		return true, strings.TrimPrefix(chord, "mod+")
	}
	return false, chord
}
