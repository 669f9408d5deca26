// Package tui hosts the interactive Gantt board: a bubbletea program that
// wires terminal input to the drag, reorder and timeline engines and keeps
// an optimistic local snapshot in sync with the task store.
package tui

import (
	"girder-cli/internal/prefs"
	"girder-cli/internal/store"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the board and blocks until the user quits.
func Run(ts *store.TaskStore, ps prefs.Store, projectID string) error {
	applyColorProfilePreference()
	applyThemePreference()

	m := newAppModel(ts, ps, projectID)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
