package app

// Stable markers for focus targets the shortcut layer needs to find.
// A marker with nothing registered under it is a valid, silent state.
const (
	FocusMarkerSessionSearch = "session-search"
	FocusMarkerChatInput     = "chat-input"
)

type FocusTargetKind string

const (
	// FocusTargetInput is a single-line text field.
	FocusTargetInput FocusTargetKind = "input"
	// FocusTargetTextarea is a multi-line text field.
	FocusTargetTextarea FocusTargetKind = "textarea"
	// FocusTargetRichText marks the enclosing surface of the rich-text
	// note editor; anything focused inside it counts as text entry.
	FocusTargetRichText FocusTargetKind = "rich-text"
	// FocusTargetList is the session sidebar list.
	FocusTargetList FocusTargetKind = "list"
	// FocusTargetViewport is the read-only transcript pane.
	FocusTargetViewport FocusTargetKind = "viewport"
)

// FocusTarget describes the currently focused surface. Container points at
// the enclosing surface, walked outward when classifying.
type FocusTarget struct {
	Kind      FocusTargetKind
	Marker    string
	Editable  bool
	Container *FocusTarget
}

type Focusable interface {
	Focus()
}

// FocusQuery is how the shortcut dispatcher reaches the rest of the UI:
// Lookup finds a focusable by marker (nil when absent), ActiveTarget
// reports what currently holds focus (nil when nothing does).
type FocusQuery interface {
	Lookup(marker string) Focusable
	ActiveTarget() *FocusTarget
}

// IsTextEntry reports whether target accepts free-form text, in which case
// single-key navigation shortcuts must not fire. Pure predicate: a nil
// target is not text entry.
func IsTextEntry(target *FocusTarget) bool {
	if target == nil {
		return false
	}
	switch target.Kind {
	case FocusTargetInput, FocusTargetTextarea:
		return true
	}
	if target.Editable {
		return true
	}
	for c := target.Container; c != nil; c = c.Container {
		if c.Kind == FocusTargetRichText {
			return true
		}
	}
	return false
}
