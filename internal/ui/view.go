package ui

import tea "github.com/charmbracelet/bubbletea"

// View is the unit of composition for overlays; it mirrors Bubble Tea's
// Init/Update/View but returns itself as a View.
type View interface {
	Init() tea.Cmd
	Update(tea.Msg) (View, tea.Cmd)
	View() string
}
