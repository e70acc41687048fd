package app

import (
	"context"
	"strconv"
	"testing"

	tea "charm.land/bubbletea/v2"

	"talky/internal/config"
	"talky/internal/store"
	"talky/internal/types"
)

// memRepo is an in-memory store.Repository for model tests.
type memRepo struct {
	sessions []*types.Session
	notes    []*types.Note
	state    types.AppState
	hasState bool
}

func (r *memRepo) Sessions() store.SessionStore  { return memSessions{r} }
func (r *memRepo) Notes() store.NoteStore        { return memNotes{r} }
func (r *memRepo) AppState() store.AppStateStore { return memState{r} }
func (r *memRepo) Close() error                  { return nil }

type memSessions struct{ r *memRepo }

func (s memSessions) List(context.Context) ([]*types.Session, error) {
	return s.r.sessions, nil
}

func (s memSessions) Get(_ context.Context, id string) (*types.Session, bool, error) {
	for _, session := range s.r.sessions {
		if session.ID == id {
			return session, true, nil
		}
	}
	return nil, false, nil
}

func (s memSessions) Upsert(_ context.Context, session *types.Session) (*types.Session, error) {
	s.r.sessions = append(s.r.sessions, session)
	return session, nil
}

func (s memSessions) Delete(context.Context, string) error { return nil }

type memNotes struct{ r *memRepo }

func (n memNotes) List(_ context.Context, filter store.NoteFilter) ([]*types.Note, error) {
	out := []*types.Note{}
	for _, note := range n.r.notes {
		if filter.SessionID == "" || note.SessionID == filter.SessionID {
			out = append(out, note)
		}
	}
	return out, nil
}

func (n memNotes) Upsert(_ context.Context, note *types.Note) (*types.Note, error) {
	if note.ID == "" {
		note.ID = "note_" + strconv.Itoa(len(n.r.notes)+1)
	}
	n.r.notes = append(n.r.notes, note)
	return note, nil
}

func (n memNotes) Delete(context.Context, string) error { return nil }

type memState struct{ r *memRepo }

func (s memState) Load(context.Context) (types.AppState, bool, error) {
	return s.r.state, s.r.hasState, nil
}

func (s memState) Save(_ context.Context, state types.AppState) error {
	s.r.state = state
	s.r.hasState = true
	return nil
}

func testSettings() config.Settings {
	return config.Settings{
		DefaultEnvironmentID: "default",
		ModelEnvironments: []types.ModelEnvironment{
			{
				ID:                 "default",
				Name:               "Default",
				BaseURL:            "https://api.example.com",
				APIKey:             "key-default",
				SummarisationModel: "sum-small",
				ChatModel:          "chat-small",
			},
			{
				ID:        "work",
				Name:      "Work",
				BaseURL:   "https://work.example.com",
				APIKey:    "key-work",
				ChatModel: "chat-large",
			},
		},
	}
}

func testSessions() []*types.Session {
	return []*types.Session{
		{ID: "ses_1", Title: "standup", Status: types.SessionStatusReady},
		{ID: "ses_2", Title: "design review", Status: types.SessionStatusReady, EnvironmentID: "work"},
		{ID: "ses_3", Title: "retro", Status: types.SessionStatusReady},
	}
}

func newTestModel(t *testing.T) *Model {
	t.Helper()
	m := NewModel(&memRepo{}, testSettings(), nil, nil)
	t.Cleanup(m.Teardown)
	m.resize(100, 30)
	return m
}

func loadSessions(t *testing.T, m *Model, sessions []*types.Session) {
	t.Helper()
	m.Update(sessionsLoadedMsg{sessions: sessions})
}

func pressKey(m *Model, msg tea.KeyPressMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func TestModelNewNoteShortcut(t *testing.T) {
	m := newTestModel(t)
	pressKey(m, modKey('n'))
	if m.mode != uiModeAddNote {
		t.Fatalf("mode = %d, want addNote", m.mode)
	}
	if !IsTextEntry(m.ActiveTarget()) {
		t.Fatal("note editor not classified as text entry")
	}
}

func TestModelSelectionNavigation(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())

	pressKey(m, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := m.selectedSession(); got == nil || got.ID != "ses_1" {
		t.Fatalf("selected = %v, want ses_1", got)
	}
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := m.selectedSession(); got == nil || got.ID != "ses_2" {
		t.Fatalf("selected = %v, want ses_2", got)
	}
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyUp})
	if got := m.selectedSession(); got == nil || got.ID != "ses_1" {
		t.Fatalf("selected = %v, want ses_1", got)
	}
}

func TestModelSelectionResolvesEnvironment(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())

	if got := m.effectiveEnv.EnvironmentID; got != "default" {
		t.Fatalf("initial environment = %q, want default", got)
	}

	m.applySelection("ses_2") // carries the "work" override
	if got := m.effectiveEnv.EnvironmentID; got != "work" {
		t.Fatalf("environment after selection = %q, want work", got)
	}
	if m.effectiveEnv.ChatModel != "chat-large" {
		t.Fatalf("chat model = %q, want chat-large", m.effectiveEnv.ChatModel)
	}

	pressKey(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.selectedSession() != nil {
		t.Fatal("esc did not deselect")
	}
	if got := m.effectiveEnv.EnvironmentID; got != "default" {
		t.Fatalf("environment after deselect = %q, want default", got)
	}
}

func TestModelEscClosesFindBarBeforeDeselecting(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())
	m.applySelection("ses_1")

	pressKey(m, modKey('f'))
	if !m.findBarOpen {
		t.Fatal("mod+f did not open the find bar")
	}

	pressKey(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.findBarOpen {
		t.Fatal("esc did not close the find bar")
	}
	if m.selectedSession() == nil {
		t.Fatal("esc deselected while the find bar was open")
	}

	pressKey(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.selectedSession() != nil {
		t.Fatal("second esc did not deselect")
	}
}

func TestModelNavigationSuppressedWhileTyping(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())
	m.applySelection("ses_1")

	pressKey(m, modKey('n')) // note editor grabs focus
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := m.selectedSession(); got == nil || got.ID != "ses_1" {
		t.Fatalf("selection moved while typing: %v", got)
	}

	// esc is never trapped by text entry.
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.selectedSession() != nil {
		t.Fatal("esc suppressed while typing")
	}
}

func TestModelViewModeShortcuts(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())

	pressKey(m, modKey('2'))
	if m.viewMode != types.ViewModeEnhanced {
		t.Fatalf("viewMode = %q, want enhanced", m.viewMode)
	}
	pressKey(m, modKey('1'))
	if m.viewMode != types.ViewModeNotes {
		t.Fatalf("viewMode = %q, want notes", m.viewMode)
	}
}

func TestModelLookupTargets(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())

	if got := m.Lookup(FocusMarkerChatInput); got != nil {
		t.Fatal("chat input resolvable without a selection")
	}

	m.applySelection("ses_1")
	chat := m.Lookup(FocusMarkerChatInput)
	if chat == nil {
		t.Fatal("chat input not resolvable with a selection")
	}
	chat.Focus()
	if m.mode != uiModeChat {
		t.Fatalf("mode = %d after chat focus, want chat", m.mode)
	}

	m.sidebarCollapsed = true
	if got := m.Lookup(FocusMarkerSessionSearch); got != nil {
		t.Fatal("search resolvable while sidebar collapsed")
	}
	m.sidebarCollapsed = false
	if got := m.Lookup(FocusMarkerSessionSearch); got == nil {
		t.Fatal("search not resolvable with sidebar expanded")
	}
	if got := m.Lookup("no-such-marker"); got != nil {
		t.Fatal("unknown marker resolved")
	}
}

func TestModelSearchFocusDeferredThroughUpdate(t *testing.T) {
	m := newTestModel(t)
	m.sidebarCollapsed = true

	cmd := pressKey(m, modKey('k'))
	if m.sidebarCollapsed {
		t.Fatal("mod+k did not expand the sidebar")
	}
	if m.mode == uiModeSearch {
		t.Fatal("search focused before the deferred message arrived")
	}
	// flushStateSave batches the focus marker with the state save; drain
	// the batch and replay the marker like the runtime would.
	msg := drainFocusMarker(t, cmd)
	m.Update(msg)
	if m.mode != uiModeSearch {
		t.Fatalf("mode = %d after deferred focus, want search", m.mode)
	}
}

// drainFocusMarker runs cmd (and any batch it expands to) until it finds
// the focusMarkerMsg.
func drainFocusMarker(t *testing.T, cmd tea.Cmd) focusMarkerMsg {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case focusMarkerMsg:
			return msg
		case tea.BatchMsg:
			queue = append(queue, msg...)
		}
	}
	t.Fatal("no focusMarkerMsg produced")
	return focusMarkerMsg{}
}

func TestModelRestoresSelectionAfterSessionsLoad(t *testing.T) {
	m := newTestModel(t)

	// App state arrives before the session list.
	m.Update(appStateLoadedMsg{
		state: types.AppState{SelectedSessionID: "ses_2", ViewMode: types.ViewModeEnhanced},
		ok:    true,
	})
	if m.selectedSession() != nil {
		t.Fatal("selection applied before sessions loaded")
	}
	if m.viewMode != types.ViewModeEnhanced {
		t.Fatalf("viewMode = %q, want enhanced", m.viewMode)
	}

	loadSessions(t, m, testSessions())
	if got := m.selectedSession(); got == nil || got.ID != "ses_2" {
		t.Fatalf("restored selection = %v, want ses_2", got)
	}
	if got := m.effectiveEnv.EnvironmentID; got != "work" {
		t.Fatalf("restored environment = %q, want work", got)
	}
}

func TestModelChatRequiresConfiguredEnvironment(t *testing.T) {
	m := NewModel(&memRepo{}, config.Settings{
		DefaultEnvironmentID: "bare",
		ModelEnvironments: []types.ModelEnvironment{
			{ID: "bare", Name: "Bare"}, // no base url or api key
		},
	}, nil, nil)
	t.Cleanup(m.Teardown)
	loadSessions(t, m, testSessions())
	m.applySelection("ses_1")

	m.mode = uiModeChat
	m.chatInput.SetValue("what changed?")
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "environment not configured" {
		t.Fatalf("status = %q, want environment not configured", m.status)
	}
}

func TestModelChatUsesEffectiveEnvironment(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())
	m.applySelection("ses_2")

	m.mode = uiModeChat
	m.chatInput.SetValue("summarise this")
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyEnter})
	if m.status != "sent to chat-large" {
		t.Fatalf("status = %q, want sent to chat-large", m.status)
	}
}

func TestModelTeardownDetachesShortcuts(t *testing.T) {
	m := newTestModel(t)
	m.Teardown()
	m.Teardown() // idempotent

	pressKey(m, modKey('n'))
	if m.mode == uiModeAddNote {
		t.Fatal("shortcut still handled after teardown")
	}
}

func TestModelSearchFilterNarrowsNavigation(t *testing.T) {
	m := newTestModel(t)
	loadSessions(t, m, testSessions())
	m.filter = "re" // matches "design review" and "retro"

	pressKey(m, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := m.selectedSession(); got == nil || got.ID != "ses_2" {
		t.Fatalf("selected = %v, want ses_2", got)
	}
	pressKey(m, tea.KeyPressMsg{Code: tea.KeyDown})
	if got := m.selectedSession(); got == nil || got.ID != "ses_3" {
		t.Fatalf("selected = %v, want ses_3", got)
	}
}
