package imageio

import (
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
)

// upperHalf draws the top pixel in the foreground and the bottom pixel in
// the background, giving two square-ish pixels per terminal cell.
const upperHalf = "▀"

// Thumbnail renders img as colored half-block cells at most cols wide and
// rows tall, preserving aspect ratio.
func Thumbnail(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	fit := imaging.Fit(img, cols, rows*2, imaging.Box)
	b := fit.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		for x := b.Min.X; x < b.Max.X; x++ {
			style := lipgloss.NewStyle().Foreground(hexAt(fit, x, y))
			if y+1 < b.Max.Y {
				style = style.Background(hexAt(fit, x, y+1))
			}
			sb.WriteString(style.Render(upperHalf))
		}
	}
	return sb.String()
}

func hexAt(img *image.NRGBA, x, y int) lipgloss.Color {
	c := img.NRGBAAt(x, y)
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}
