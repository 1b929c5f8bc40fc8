package ui

import (
	"dermascan/internal/controller"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// newHelpModel returns a bubbles/help model styled like the rest of the UI.
func newHelpModel() help.Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorHighlight)).
		Bold(true)
	h.Styles.ShortDesc = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	h.Styles.ShortSeparator = lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted))
	return h
}

// RenderKeybindHelp produces the key legend for the current phase.
func RenderKeybindHelp(h help.Model, reg *KeybindRegistry, phase controller.Phase) string {
	if reg == nil {
		return ""
	}
	return h.View(NewKeyMap(reg, phase))
}
