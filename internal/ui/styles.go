package ui

import (
	"dermascan/internal/render"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors used throughout the UI
const (
	ColorAccent    = "86"  // Cyan/green - titles, highlights
	ColorHighlight = "205" // Magenta - borders, selected items
	ColorDanger    = "196" // Red - errors
	ColorMuted     = "241" // Gray - hints
	ColorText      = "252" // Light gray - normal text
	ColorWarning   = "208" // Orange - non-error notices
)

// Confidence bar fills per tier.
const (
	ColorTierHigh   = "#22c55e" // green
	ColorTierMedium = "#3b82f6" // blue
	ColorTierLow    = "#eab308" // yellow
)

// TierColor returns the bar fill for a tier.
func TierColor(t render.Tier) string {
	switch t {
	case render.TierHigh:
		return ColorTierHigh
	case render.TierMedium:
		return ColorTierMedium
	default:
		return ColorTierLow
	}
}

// Styles contains shared style definitions.
var Styles = struct {
	Title   lipgloss.Style
	Box     lipgloss.Style // panels
	Card    lipgloss.Style // result card
	Camera  lipgloss.Style // camera panel
	Button  lipgloss.Style // the Analyze affordance
	Muted   lipgloss.Style
	Normal  lipgloss.Style
	Label   lipgloss.Style // primary prediction
	Error   lipgloss.Style
	Warning lipgloss.Style
	Empty   lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccent)),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorMuted)).
		Padding(0, 1),
	Card: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorHighlight)).
		Padding(0, 1),
	Camera: lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color(ColorAccent)).
		Padding(0, 1),
	Button: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color(ColorAccent)).
		Padding(0, 2),
	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)),
	Normal: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorText)),
	Label: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorText)),
	Error: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorDanger)),
	Warning: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorWarning)),
	Empty: lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorMuted)).
		Italic(true),
}
