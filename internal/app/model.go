package app

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"talky/internal/config"
	"talky/internal/logging"
	"talky/internal/store"
	"talky/internal/types"
)

const (
	minSidebarWidth  = 24
	maxSidebarWidth  = 40
	minContentHeight = 6
)

type uiMode int

const (
	uiModeNormal uiMode = iota
	uiModeSearch
	uiModeChat
	uiModeAddNote
	uiModeSettings
)

type Model struct {
	sessions  []*types.Session
	notes     []*types.Note
	selected  int
	viewMode  types.ViewMode
	mode      uiMode
	filter    string
	findQuery string

	findBarOpen      bool
	sidebarCollapsed bool

	searchInput textinput.Model
	chatInput   textinput.Model
	findInput   textinput.Model
	noteEditor  textarea.Model
	viewport    viewport.Model

	settings     config.Settings
	effectiveEnv config.EffectiveEnvironment
	keybindings  *Keybindings

	sessionStore store.SessionStore
	noteStore    store.NoteStore
	stateStore   store.AppStateStore

	feed      *KeyFeed
	shortcuts *ShortcutDispatcher
	detach    func()

	logger          logging.Logger
	status          string
	stateDirty      bool
	notesStale      bool
	pendingSelectID string
	width           int
	height          int
}

func NewModel(repo store.Repository, settings config.Settings, keys *Keybindings, logger logging.Logger) *Model {
	if keys == nil {
		keys = DefaultKeybindings()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	search := textinput.New()
	search.Placeholder = "search sessions"
	chat := textinput.New()
	chat.Placeholder = "ask about this session"
	find := textinput.New()
	find.Placeholder = "find in transcript"
	editor := textarea.New()
	editor.Placeholder = "note"

	m := &Model{
		selected:     -1,
		viewMode:     types.ViewModeNotes,
		searchInput:  search,
		chatInput:    chat,
		findInput:    find,
		noteEditor:   editor,
		viewport:     viewport.New(viewport.WithWidth(minSidebarWidth), viewport.WithHeight(minContentHeight)),
		settings:     settings,
		keybindings:  keys,
		sessionStore: repo.Sessions(),
		noteStore:    repo.Notes(),
		stateStore:   repo.AppState(),
		feed:         NewKeyFeed(),
		logger:       logger,
	}
	m.effectiveEnv = settings.EffectiveEnvironment("")
	m.shortcuts = NewShortcutDispatcher(m.shortcutActions(), m, keys)
	m.detach = m.feed.Attach(m.shortcuts)
	return m
}

// Teardown releases the global key handler. Safe to call more than once.
func (m *Model) Teardown() {
	if m != nil && m.detach != nil {
		m.detach()
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		loadSessionsCmd(m.sessionStore),
		loadAppStateCmd(m.stateStore),
	)
}

func (m *Model) shortcutActions() ShortcutActions {
	return ShortcutActions{
		CreateNote:            m.createNote,
		SetViewMode:           m.setViewMode,
		SelectNextSession:     m.selectNextSession,
		SelectPreviousSession: m.selectPreviousSession,
		DeselectSession:       m.deselectSession,
		OpenSettings:          m.openSettings,
		ToggleFindBar:         m.toggleFindBar,
		CloseFindBar:          m.closeFindBar,
		ExpandSidebar:         m.expandSidebar,
		CopySessionID:         m.copySelectedSessionID,
		FindBarOpen:           func() bool { return m.findBarOpen },
	}
}

// Lookup implements FocusQuery. Targets that are not mounted resolve to
// nil, which callers treat as a silent no-op.
func (m *Model) Lookup(marker string) Focusable {
	switch marker {
	case FocusMarkerSessionSearch:
		if m.sidebarCollapsed {
			return nil
		}
		return focusableFunc(func() {
			m.mode = uiModeSearch
			m.searchInput.Focus()
		})
	case FocusMarkerChatInput:
		if m.selectedSession() == nil {
			return nil
		}
		return focusableFunc(func() {
			m.mode = uiModeChat
			m.chatInput.Focus()
		})
	default:
		return nil
	}
}

// ActiveTarget implements FocusQuery for the text-entry classifier.
func (m *Model) ActiveTarget() *FocusTarget {
	switch m.mode {
	case uiModeSearch:
		return &FocusTarget{Kind: FocusTargetInput, Marker: FocusMarkerSessionSearch}
	case uiModeChat:
		return &FocusTarget{Kind: FocusTargetInput, Marker: FocusMarkerChatInput}
	case uiModeAddNote:
		return &FocusTarget{
			Kind:      FocusTargetTextarea,
			Container: &FocusTarget{Kind: FocusTargetRichText},
		}
	case uiModeSettings:
		return &FocusTarget{Kind: FocusTargetViewport}
	}
	if m.findBarOpen {
		return &FocusTarget{Kind: FocusTargetInput}
	}
	return &FocusTarget{Kind: FocusTargetList}
}

type focusableFunc func()

func (f focusableFunc) Focus() { f() }

func (m *Model) createNote() {
	m.mode = uiModeAddNote
	m.noteEditor.Reset()
	m.noteEditor.Focus()
}

func (m *Model) setViewMode(mode types.ViewMode) {
	if m.viewMode == mode {
		return
	}
	m.viewMode = mode
	m.syncViewport()
	m.markStateDirty()
}

func (m *Model) selectNextSession() {
	visible := m.visibleSessions()
	if len(visible) == 0 {
		return
	}
	if m.selected < 0 {
		m.applySelection(visible[0].ID)
		return
	}
	for i, session := range visible {
		if session.ID == m.sessions[m.selected].ID && i+1 < len(visible) {
			m.applySelection(visible[i+1].ID)
			return
		}
	}
}

func (m *Model) selectPreviousSession() {
	visible := m.visibleSessions()
	if len(visible) == 0 {
		return
	}
	if m.selected < 0 {
		m.applySelection(visible[len(visible)-1].ID)
		return
	}
	for i, session := range visible {
		if session.ID == m.sessions[m.selected].ID && i > 0 {
			m.applySelection(visible[i-1].ID)
			return
		}
	}
}

func (m *Model) deselectSession() {
	m.mode = uiModeNormal
	if m.selected == -1 {
		return
	}
	m.selected = -1
	m.effectiveEnv = m.settings.EffectiveEnvironment("")
	m.syncViewport()
	m.markStateDirty()
}

func (m *Model) openSettings() {
	m.mode = uiModeSettings
}

func (m *Model) toggleFindBar() {
	if m.findBarOpen {
		m.closeFindBar()
		return
	}
	m.findBarOpen = true
	m.findInput.Reset()
	m.findInput.Focus()
}

func (m *Model) closeFindBar() {
	m.findBarOpen = false
	m.findQuery = ""
	m.findInput.Blur()
}

func (m *Model) expandSidebar() {
	if !m.sidebarCollapsed {
		return
	}
	m.sidebarCollapsed = false
	m.markStateDirty()
}

func (m *Model) copySelectedSessionID() {
	session := m.selectedSession()
	if session == nil {
		m.status = "no session selected"
		return
	}
	if _, err := copyTextToClipboard(session.ID); err != nil {
		m.status = "copy failed"
		m.logger.Warn("clipboard copy failed", logging.F("err", err.Error()))
		return
	}
	m.status = "copied session id"
}

// applySelection selects the session with the given id and re-resolves the
// effective environment against its environment override.
func (m *Model) applySelection(id string) {
	for i, session := range m.sessions {
		if session.ID == id {
			m.selected = i
			m.effectiveEnv = m.settings.EffectiveEnvironment(session.EnvironmentID)
			m.notesStale = true
			m.syncViewport()
			m.markStateDirty()
			return
		}
	}
}

func (m *Model) selectedSession() *types.Session {
	if m.selected < 0 || m.selected >= len(m.sessions) {
		return nil
	}
	return m.sessions[m.selected]
}

func (m *Model) visibleSessions() []*types.Session {
	filter := strings.ToLower(strings.TrimSpace(m.filter))
	if filter == "" {
		return m.sessions
	}
	out := make([]*types.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		if strings.Contains(strings.ToLower(session.Title), filter) {
			out = append(out, session)
		}
	}
	return out
}

func (m *Model) markStateDirty() {
	m.stateDirty = true
}

func (m *Model) appState() types.AppState {
	state := types.AppState{
		ViewMode:         m.viewMode,
		SidebarCollapsed: m.sidebarCollapsed,
	}
	if session := m.selectedSession(); session != nil {
		state.SelectedSessionID = session.ID
	}
	return state
}

// flushStateSave appends the follow-up work a shortcut action queued:
// persisting changed app state and refreshing notes after a selection
// change.
func (m *Model) flushStateSave(cmd tea.Cmd) tea.Cmd {
	cmds := make([]tea.Cmd, 0, 3)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	if m.stateDirty {
		m.stateDirty = false
		cmds = append(cmds, saveAppStateCmd(m.stateStore, m.appState()))
	}
	if m.notesStale {
		m.notesStale = false
		sessionID := ""
		if session := m.selectedSession(); session != nil {
			sessionID = session.ID
		}
		cmds = append(cmds, loadNotesCmd(m.noteStore, sessionID))
	}
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.KeyPressMsg:
		return m.updateKey(msg)
	case focusMarkerMsg:
		// The deferred focus lands here one cycle after dispatch; the
		// lookup happens now, so a target gone in the meantime is skipped.
		m.shortcuts.FocusMarker(msg.marker)
		return m, nil
	case sessionsLoadedMsg:
		if msg.err != nil {
			m.status = "failed to load sessions"
			m.logger.Error("load sessions", logging.F("err", msg.err.Error()))
			return m, nil
		}
		m.sessions = msg.sessions
		m.clampSelection()
		if m.pendingSelectID != "" {
			m.applySelection(m.pendingSelectID)
			if m.selectedSession() != nil {
				m.pendingSelectID = ""
				m.stateDirty = false
			}
		}
		m.syncViewport()
		return m, m.flushStateSave(nil)
	case appStateLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("load app state", logging.F("err", msg.err.Error()))
			return m, nil
		}
		if msg.ok {
			m.restoreAppState(msg.state)
		}
		return m, m.flushStateSave(nil)
	case appStateSavedMsg:
		if msg.err != nil {
			m.logger.Warn("save app state", logging.F("err", msg.err.Error()))
		}
		return m, nil
	case notesLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("load notes", logging.F("err", msg.err.Error()))
			return m, nil
		}
		m.notes = msg.notes
		m.syncViewport()
		return m, nil
	case noteSavedMsg:
		if msg.err != nil {
			m.status = "failed to save note"
			m.logger.Error("save note", logging.F("err", msg.err.Error()))
			return m, nil
		}
		m.notes = append([]*types.Note{msg.note}, m.notes...)
		m.status = "note saved"
		m.syncViewport()
		return m, nil
	case settingsReloadedMsg:
		if msg.err != nil {
			m.status = "failed to reload settings"
			m.logger.Error("reload settings", logging.F("err", msg.err.Error()))
			return m, nil
		}
		m.settings = msg.settings
		sessionEnvID := ""
		if session := m.selectedSession(); session != nil {
			sessionEnvID = session.EnvironmentID
		}
		m.effectiveEnv = m.settings.EffectiveEnvironment(sessionEnvID)
		m.status = "settings reloaded"
		return m, nil
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Teardown()
		return m, tea.Quit
	}
	// The global shortcut layer sees every key first; a match consumes
	// the event before any focused component can.
	if handled, cmd := m.feed.Dispatch(msg); handled {
		return m, m.flushStateSave(cmd)
	}
	return m.updateModeKey(msg)
}

func (m *Model) updateModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case uiModeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.filter = m.searchInput.Value()
		return m, cmd
	case uiModeChat:
		if msg.String() == "enter" {
			return m, m.submitChat()
		}
		m.chatInput, cmd = m.chatInput.Update(msg)
		return m, cmd
	case uiModeAddNote:
		if mod, base := splitKey(msg); mod && base == "s" {
			return m, m.submitNote()
		}
		m.noteEditor, cmd = m.noteEditor.Update(msg)
		return m, cmd
	case uiModeSettings:
		return m, nil
	}
	if m.findBarOpen {
		m.findInput, cmd = m.findInput.Update(msg)
		m.findQuery = m.findInput.Value()
		return m, cmd
	}
	switch msg.String() {
	case "q":
		m.Teardown()
		return m, tea.Quit
	case "r":
		m.status = "refreshing"
		return m, tea.Batch(loadSessionsCmd(m.sessionStore), reloadSettingsCmd())
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) submitNote() tea.Cmd {
	body := strings.TrimSpace(m.noteEditor.Value())
	m.mode = uiModeNormal
	m.noteEditor.Blur()
	if body == "" {
		return nil
	}
	note := &types.Note{Body: body}
	if session := m.selectedSession(); session != nil {
		note.SessionID = session.ID
	}
	return saveNoteCmd(m.noteStore, note)
}

func (m *Model) submitChat() tea.Cmd {
	text := strings.TrimSpace(m.chatInput.Value())
	m.chatInput.Reset()
	if text == "" {
		return nil
	}
	if !m.effectiveEnv.IsConfigured {
		m.status = "environment not configured"
		return nil
	}
	m.status = "sent to " + m.effectiveEnv.ChatModel
	m.logger.Info("chat submitted",
		logging.F("environment", m.effectiveEnv.EnvironmentID),
		logging.F("model", m.effectiveEnv.ChatModel),
	)
	return nil
}

func (m *Model) restoreAppState(state types.AppState) {
	m.viewMode = types.ParseViewMode(string(state.ViewMode))
	m.sidebarCollapsed = state.SidebarCollapsed
	if state.SelectedSessionID != "" {
		m.applySelection(state.SelectedSessionID)
		if m.selectedSession() == nil {
			// Sessions may not have loaded yet; retry once they have.
			m.pendingSelectID = state.SelectedSessionID
		}
		m.stateDirty = false
	}
	m.syncViewport()
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.sessions) {
		m.selected = len(m.sessions) - 1
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	sidebar := sidebarWidth(width)
	content := width - sidebar - 3
	if content < 1 {
		content = 1
	}
	m.viewport.SetWidth(content)
	contentHeight := height - 4
	if contentHeight < minContentHeight {
		contentHeight = minContentHeight
	}
	m.viewport.SetHeight(contentHeight)
	m.searchInput.SetWidth(sidebar - 2)
	m.chatInput.SetWidth(content)
	m.findInput.SetWidth(content)
	m.noteEditor.SetWidth(content)
	m.syncViewport()
}

func sidebarWidth(total int) int {
	w := total / 4
	if w < minSidebarWidth {
		w = minSidebarWidth
	}
	if w > maxSidebarWidth {
		w = maxSidebarWidth
	}
	return w
}
