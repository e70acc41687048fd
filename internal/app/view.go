package app

import (
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	runewidth "github.com/mattn/go-runewidth"

	"talky/internal/types"
)

const sidebarTitleMax = 36

var (
	styleSidebarTitle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	styleSelectedItem  = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	styleDimmed        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleStatus        = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleFindBar       = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	styleHeader        = lipgloss.NewStyle().Bold(true).Underline(true)
	styleConfiguredYes = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleConfiguredNo  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (m *Model) View() tea.View {
	view := tea.NewView(m.render())
	view.AltScreen = true
	return view
}

func (m *Model) render() string {
	if m.width <= 0 {
		return ""
	}
	if m.mode == uiModeSettings {
		return m.settingsView()
	}
	sidebar := m.sidebarView()
	content := m.contentView()
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " │ ", content)
	lines := []string{body}
	if m.findBarOpen {
		lines = append(lines, m.findBarView())
	}
	if m.mode == uiModeChat {
		lines = append(lines, m.chatInput.View())
	}
	lines = append(lines, m.footerView())
	return strings.Join(lines, "\n")
}

func (m *Model) sidebarView() string {
	width := sidebarWidth(m.width)
	if m.sidebarCollapsed {
		return styleDimmed.Render("▸")
	}
	lines := []string{styleSidebarTitle.Render("Sessions")}
	if m.mode == uiModeSearch {
		lines = append(lines, m.searchInput.View())
	}
	selected := m.selectedSession()
	for _, session := range m.visibleSessions() {
		title := sessionTitle(session)
		title = runewidth.Truncate(title, sidebarTitleMax, "…")
		marker := "  "
		line := title
		if selected != nil && session.ID == selected.ID {
			marker = "> "
			line = styleSelectedItem.Render(title)
		}
		lines = append(lines, marker+line)
	}
	if len(m.visibleSessions()) == 0 {
		lines = append(lines, styleDimmed.Render("no sessions"))
	}
	return padLines(lines, width)
}

func sessionTitle(session *types.Session) string {
	if session == nil {
		return ""
	}
	title := strings.TrimSpace(session.Title)
	if title == "" {
		title = session.ID
	}
	if session.Status == types.SessionStatusEnhancing {
		title += " ⋯"
	}
	return title
}

func (m *Model) contentView() string {
	if m.mode == uiModeAddNote {
		return m.noteEditor.View() + "\n" + styleDimmed.Render(displayChord("mod+s", platformGOOS())+" save")
	}
	if m.selectedSession() == nil && m.viewMode == types.ViewModeEnhanced {
		return styleDimmed.Render("select a session")
	}
	return m.viewport.View()
}

// syncViewport refreshes the content pane from the current view mode and
// selection.
func (m *Model) syncViewport() {
	switch m.viewMode {
	case types.ViewModeEnhanced:
		session := m.selectedSession()
		if session == nil {
			m.viewport.SetContent("")
			return
		}
		text := session.Enhanced
		if strings.TrimSpace(text) == "" {
			text = session.Transcript
		}
		m.viewport.SetContent(renderMarkdown(text, m.viewport.Width()))
	default:
		m.viewport.SetContent(m.notesContent())
	}
}

func (m *Model) notesContent() string {
	if len(m.notes) == 0 {
		return styleDimmed.Render("no notes yet")
	}
	var b strings.Builder
	for i, note := range m.notes {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(styleDimmed.Render(note.CreatedAt.Local().Format("2006-01-02 15:04")))
		b.WriteString("\n")
		b.WriteString(note.Body)
	}
	return b.String()
}

func (m *Model) findBarView() string {
	count := 0
	if session := m.selectedSession(); session != nil && m.findQuery != "" {
		text := session.Enhanced
		if strings.TrimSpace(text) == "" {
			text = session.Transcript
		}
		count = strings.Count(strings.ToLower(text), strings.ToLower(m.findQuery))
	}
	suffix := ""
	if m.findQuery != "" {
		suffix = styleDimmed.Render(pluralMatches(count))
	}
	return styleFindBar.Render("find: ") + m.findInput.View() + " " + suffix
}

func pluralMatches(count int) string {
	if count == 1 {
		return "1 match"
	}
	return strconv.Itoa(count) + " matches"
}

func (m *Model) footerView() string {
	hints := renderHints(defaultHints(), m.keybindings, platformGOOS())
	if m.status != "" {
		return styleStatus.Render(m.status) + "  " + styleDimmed.Render(hints)
	}
	return styleDimmed.Render(hints)
}

func (m *Model) settingsView() string {
	env := m.effectiveEnv
	lines := []string{styleHeader.Render("Settings"), ""}
	if env.Environment == nil {
		lines = append(lines, styleConfiguredNo.Render("no environment configured"))
	} else {
		name := env.Environment.Name
		if name == "" {
			name = env.EnvironmentID
		}
		lines = append(lines, "environment: "+name)
		lines = append(lines, "base url:    "+orDash(env.BaseURL))
		lines = append(lines, "api key:     "+maskSecret(env.APIKey))
		lines = append(lines, "summarise:   "+orDash(env.SummarisationModel))
		lines = append(lines, "chat:        "+orDash(env.ChatModel))
		if env.IsConfigured {
			lines = append(lines, styleConfiguredYes.Render("configured"))
		} else {
			lines = append(lines, styleConfiguredNo.Render("not configured"))
		}
	}
	lines = append(lines, "", styleDimmed.Render("esc to close"))
	return strings.Join(lines, "\n")
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "—"
	}
	return value
}

func maskSecret(value string) string {
	if value == "" {
		return "—"
	}
	if len(value) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
