// Package textutil provides unicode-aware text helpers for the result panel.
package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis marks truncated labels.
const Ellipsis = "…"

// Width returns the number of terminal columns s occupies.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most maxWidth columns, ending in Ellipsis when cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= Width(Ellipsis) {
		return Ellipsis
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadRight pads s with spaces to exactly width columns, truncating if wider.
func PadRight(s string, width int) string {
	if Width(s) >= width {
		return Truncate(s, width)
	}
	return runewidth.FillRight(s, width)
}

// Row lays out a label on the left and a value on the right of a line that
// is width columns wide. The label is truncated first when space runs out.
func Row(label, value string, width int) string {
	vw := Width(value)
	room := width - vw - 1
	if room < 1 {
		return label + " " + value
	}
	label = Truncate(label, room)
	gap := width - Width(label) - vw
	return label + strings.Repeat(" ", gap) + value
}
