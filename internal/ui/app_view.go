package ui

import (
	"fmt"
	"image"
	"strings"

	"dermascan/internal/imageio"
	"dermascan/internal/render"
	"dermascan/internal/ui/textutil"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	defaultWidth = 80
	minCardWidth = 30
	maxCardWidth = 64
)

func (m *AppModel) render() string {
	vs := m.VisualState()
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))
	if vs.Notice != "" {
		style := Styles.Warning
		if vs.NoticeIsError {
			style = Styles.Error
		}
		sections = append(sections, style.Render(textutil.Truncate(vs.Notice, width)))
	}

	if top, ok := m.Overlays.Peek(); ok {
		if top.Title != "" {
			sections = append(sections, Styles.Title.Render(top.Title))
		}
		sections = append(sections, Styles.Box.Render(top.View.View()))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	sections = append(sections, m.renderBody(vs, width))
	if h := RenderKeybindHelp(m.help, m.KeyHandler.Registry, vs.Phase); h != "" {
		sections = append(sections, h)
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *AppModel) renderHeader(width int) string {
	endpoint := m.Options.Endpoint
	if endpoint == "" {
		endpoint = "(no endpoint)"
	}
	status := ""
	if m.health != "" {
		status = "● " + m.health
	}
	room := width - textutil.Width("DermaScan") - textutil.Width(status) - 3
	line := Styles.Title.Render("DermaScan") + Styles.Muted.Render("  "+textutil.Truncate(endpoint, max(room, 1)))
	switch {
	case m.healthErr:
		line += " " + Styles.Error.Render(status)
	case status != "":
		line += " " + Styles.Title.Render(status)
	}
	return line
}

func (m *AppModel) renderBody(vs render.VisualState, width int) string {
	var parts []string
	if vs.CameraOpen {
		parts = append(parts, m.renderCamera(vs))
	}
	if vs.PreviewVisible {
		parts = append(parts, m.renderPreview(vs.Preview))
	}
	if vs.AnalyzeVisible {
		parts = append(parts, Styles.Button.Render("Analyze"))
	}
	if vs.LoadingVisible {
		parts = append(parts, m.spinner.View()+" "+Styles.Normal.Render("Analyzing…"))
	}
	if vs.ResultVisible {
		parts = append(parts, RenderResult(vs.Result, cardWidth(width)))
	}
	if len(parts) == 0 {
		parts = append(parts, Styles.Empty.Render("Upload a photo (u) or open the camera (c)."))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *AppModel) renderCamera(vs render.VisualState) string {
	body := m.liveFrame
	if !vs.CameraLive || body == "" {
		body = m.spinner.View() + " " + Styles.Muted.Render("Opening camera…")
	}
	return Styles.Camera.Render(Styles.Title.Render("Camera") + "\n" + body)
}

func (m *AppModel) renderPreview(p *render.PreviewView) string {
	field := func(label, value string) string {
		return Styles.Muted.Render(textutil.PadRight(label, 6)) + Styles.Normal.Render(value)
	}
	lines := []string{
		field("File", p.Name),
		field("Type", p.MIMEType),
		field("Size", fmt.Sprintf("%dx%d, %s", p.Width, p.Height, humanize.Bytes(uint64(p.Bytes)))),
	}
	if t := m.previewThumbnail(); t != "" {
		lines = append(lines, t)
	}
	return Styles.Box.Render(strings.Join(lines, "\n"))
}

// previewThumbnail caches the rendered thumbnail of the selected image.
func (m *AppModel) previewThumbnail() string {
	img := m.Controller.Session().Image
	if img != m.thumbFor {
		m.thumbFor = img
		m.thumb = ""
		if img != nil {
			m.thumb = thumbnail(img.Decoded())
		}
	}
	return m.thumb
}

func thumbnail(img image.Image) string {
	return imageio.Thumbnail(img, thumbCols, thumbRows)
}

func cardWidth(width int) int {
	w := width - 4
	if w > maxCardWidth {
		w = maxCardWidth
	}
	if w < minCardWidth {
		w = minCardWidth
	}
	return w
}

// RenderResult draws the result card: label and percent, a confidence bar
// colored by tier, then the alternatives in received order.
func RenderResult(r *render.ResultView, width int) string {
	if r == nil {
		return ""
	}
	if width < minCardWidth {
		width = minCardWidth
	}
	inner := width - 4 // border and padding

	bar := progress.New(
		progress.WithSolidFill(TierColor(r.Tier)),
		progress.WithWidth(inner),
		progress.WithoutPercentage(),
	)

	lines := []string{
		Styles.Muted.Render("Diagnosis"),
		Styles.Label.Render(textutil.Row(r.Label, r.PercentText, inner)),
		bar.ViewAs(float64(render.BarFill(r.Percent, inner)) / float64(inner)),
		Styles.Muted.Render("Confidence: " + r.Tier.String()),
		"",
		Styles.Muted.Render("Other possibilities"),
	}
	if r.NoMatches {
		lines = append(lines, Styles.Empty.Render(render.NoMatchesText))
	}
	for _, alt := range r.Alternatives {
		lines = append(lines, Styles.Normal.Render(textutil.Truncate(alt.String(), inner)))
	}
	return Styles.Card.Width(width - 2).Render(strings.Join(lines, "\n"))
}
