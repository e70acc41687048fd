package app

import (
	"sync"

	tea "charm.land/bubbletea/v2"

	"talky/internal/types"
)

// ShortcutActions are the collaborators the dispatcher drives. The store
// operations are synchronous and side-effecting; the dispatcher never
// catches errors or panics raised inside them. Optional callbacks may be
// nil; their rules then consume the key without further effect.
type ShortcutActions struct {
	CreateNote            func()
	SetViewMode           func(types.ViewMode)
	SelectNextSession     func()
	SelectPreviousSession func()
	DeselectSession       func()
	OpenSettings          func()
	ToggleFindBar         func()
	CloseFindBar          func()
	ExpandSidebar         func()
	CopySessionID         func()

	// FindBarOpen is read at dispatch time; the dispatcher holds no find
	// bar state of its own.
	FindBarOpen func() bool
}

// shortcutBinding is one row of the dispatch table. Rows are evaluated in
// declaration order and evaluation stops at the first match, so at most
// one action fires per key event.
type shortcutBinding struct {
	command  string
	freeOnly bool // suppressed while focus is a text-entry context
	run      func(d *ShortcutDispatcher) tea.Cmd
}

// ShortcutDispatcher owns the global shortcut table. It is stateless
// between events: everything it needs is read from the injected actions
// and focus query at dispatch time.
type ShortcutDispatcher struct {
	bindings []shortcutBinding
	actions  ShortcutActions
	focus    FocusQuery
	keys     *Keybindings
}

func NewShortcutDispatcher(actions ShortcutActions, focus FocusQuery, keys *Keybindings) *ShortcutDispatcher {
	if keys == nil {
		keys = DefaultKeybindings()
	}
	d := &ShortcutDispatcher{
		actions: actions,
		focus:   focus,
		keys:    keys,
	}
	d.bindings = []shortcutBinding{
		{command: KeyCommandNewNote, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.actions.CreateNote()
			return nil
		}},
		{command: KeyCommandFocusSearch, run: func(d *ShortcutDispatcher) tea.Cmd {
			if d.actions.ExpandSidebar != nil {
				d.actions.ExpandSidebar()
			}
			// The search input mounts with the sidebar; focus it one
			// frame later, once layout has settled.
			return deferredFocusCmd(FocusMarkerSessionSearch)
		}},
		{command: KeyCommandFocusChat, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.FocusMarker(FocusMarkerChatInput)
			return nil
		}},
		{command: KeyCommandOpenSettings, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.actions.OpenSettings()
			return nil
		}},
		{command: KeyCommandViewNotes, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.actions.SetViewMode(types.ViewModeNotes)
			return nil
		}},
		{command: KeyCommandViewEnhanced, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.actions.SetViewMode(types.ViewModeEnhanced)
			return nil
		}},
		{command: KeyCommandToggleFind, run: func(d *ShortcutDispatcher) tea.Cmd {
			if d.actions.ToggleFindBar != nil {
				d.actions.ToggleFindBar()
			}
			return nil
		}},
		{command: KeyCommandCopySessionID, run: func(d *ShortcutDispatcher) tea.Cmd {
			if d.actions.CopySessionID != nil {
				d.actions.CopySessionID()
			}
			return nil
		}},
		{command: KeyCommandSessionNext, freeOnly: true, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.actions.SelectNextSession()
			return nil
		}},
		{command: KeyCommandSessionPrev, freeOnly: true, run: func(d *ShortcutDispatcher) tea.Cmd {
			d.actions.SelectPreviousSession()
			return nil
		}},
		// Enter on the sidebar is reserved: recognized so it cannot reach
		// later rows, but currently without an action.
		{command: KeyCommandOpenSession, freeOnly: true, run: func(d *ShortcutDispatcher) tea.Cmd {
			return nil
		}},
		// Dismiss stays reachable while typing: text entry never traps esc.
		{command: KeyCommandDismiss, run: func(d *ShortcutDispatcher) tea.Cmd {
			if d.actions.FindBarOpen != nil && d.actions.FindBarOpen() {
				if d.actions.CloseFindBar != nil {
					d.actions.CloseFindBar()
				}
				return nil
			}
			d.actions.DeselectSession()
			return nil
		}},
	}
	return d
}

// Dispatch evaluates the binding table against one key press. It reports
// whether the event matched a row; a matched event must be consumed by the
// caller so the focused component never sees it.
func (d *ShortcutDispatcher) Dispatch(msg tea.KeyPressMsg) (bool, tea.Cmd) {
	if d == nil {
		return false, nil
	}
	mod, base := splitKey(msg)
	textEntry := false
	if d.focus != nil {
		textEntry = IsTextEntry(d.focus.ActiveTarget())
	}
	for _, binding := range d.bindings {
		wantMod, wantBase := chordParts(d.keys.ChordFor(binding.command))
		if wantMod != mod || wantBase != base {
			continue
		}
		if binding.freeOnly && textEntry {
			continue
		}
		return true, binding.run(d)
	}
	return false, nil
}

// FocusMarker focuses whatever is registered under marker. Nothing being
// registered is a valid state and a silent no-op.
func (d *ShortcutDispatcher) FocusMarker(marker string) {
	if d == nil || d.focus == nil {
		return
	}
	if target := d.focus.Lookup(marker); target != nil {
		target.Focus()
	}
}

// splitKey reduces a key press to (primary modifier held, base key name).
// The primary modifier is satisfied by control or by the platform command
// key; dispatch never distinguishes the two.
func splitKey(msg tea.KeyPressMsg) (bool, string) {
	key := tea.Key(msg)
	mod := key.Mod.Contains(tea.ModCtrl) ||
		key.Mod.Contains(tea.ModSuper) ||
		key.Mod.Contains(tea.ModMeta)
	key.Mod = 0
	return mod, key.String()
}

func deferredFocusCmd(marker string) tea.Cmd {
	return func() tea.Msg {
		return focusMarkerMsg{marker: marker}
	}
}

// KeyFeed fans key presses in to at most one attached dispatcher. Event
// delivery is serialized; attach and detach must pair 1:1 with the owning
// view's lifetime so no handler outlives its view.
type KeyFeed struct {
	mu       sync.Mutex
	attached *ShortcutDispatcher
}

func NewKeyFeed() *KeyFeed {
	return &KeyFeed{}
}

// Attach wires the dispatcher to the feed and returns its release
// function. The release is idempotent and only clears its own
// attachment; after it runs, no key event reaches the dispatcher again.
func (f *KeyFeed) Attach(d *ShortcutDispatcher) (detach func()) {
	f.mu.Lock()
	f.attached = d
	f.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.attached == d {
				f.attached = nil
			}
			f.mu.Unlock()
		})
	}
}

// Dispatch forwards one key press to the attached dispatcher, if any.
func (f *KeyFeed) Dispatch(msg tea.KeyPressMsg) (bool, tea.Cmd) {
	f.mu.Lock()
	d := f.attached
	f.mu.Unlock()
	return d.Dispatch(msg)
}
