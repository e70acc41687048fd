package app

import (
	tea "charm.land/bubbletea/v2"

	"talky/internal/config"
	"talky/internal/logging"
	"talky/internal/store"
)

// Run starts the terminal UI and blocks until it exits.
func Run(repo store.Repository, settings config.Settings, keys *Keybindings, logger logging.Logger) error {
	model := NewModel(repo, settings, keys, logger)
	defer model.Teardown()
	p := tea.NewProgram(model)
	_, err := p.Run()
	return err
}
