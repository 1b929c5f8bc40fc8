// Package ui is the Bubble Tea front end. It turns key presses into
// controller events, runs blocking work (camera, file reads, prediction
// requests) as tea.Cmds, and draws the render.VisualState computed for the
// controller's current snapshot.
//
// Layout, top to bottom:
//   - header: service endpoint and health
//   - notice line
//   - camera panel (Capturing) or preview panel (Previewing/Analyzing)
//   - loading indicator or result card
//   - key help
//
// The file picker is shown as an overlay on top of the main screen.
package ui
