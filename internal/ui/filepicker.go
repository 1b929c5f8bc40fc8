package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ImageExtensions are the files offered by the picker, in lower case.
var ImageExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tif", ".tiff",
}

// allowedTypes expands exts to every upper/lower case spelling, since the
// picker matches suffixes case-sensitively.
func allowedTypes(exts []string) []string {
	var out []string
	for _, ext := range exts {
		variants := []string{""}
		for _, r := range strings.ToLower(ext) {
			lower, upper := string(r), strings.ToUpper(string(r))
			next := make([]string, 0, len(variants)*2)
			for _, v := range variants {
				next = append(next, v+lower)
				if upper != lower {
					next = append(next, v+upper)
				}
			}
			variants = next
		}
		out = append(out, variants...)
	}
	return out
}

// FilePickerView wraps bubbles/filepicker and reports the chosen file as a
// FileChosenMsg.
type FilePickerView struct {
	picker filepicker.Model
	err    string
}

// NewFilePickerView starts browsing at dir (the working directory when empty).
func NewFilePickerView(dir string, height int) *FilePickerView {
	fp := filepicker.New()
	fp.AllowedTypes = allowedTypes(ImageExtensions)
	fp.ShowHidden = false
	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		} else {
			dir = "."
		}
	}
	fp.CurrentDirectory = dir
	if height > 0 {
		fp.Height = height
	}
	fp.Styles.Selected = fp.Styles.Selected.Foreground(lipgloss.Color(ColorHighlight))
	fp.Styles.Cursor = fp.Styles.Cursor.Foreground(lipgloss.Color(ColorHighlight))
	return &FilePickerView{picker: fp}
}

// Init implements View.
func (v *FilePickerView) Init() tea.Cmd {
	return v.picker.Init()
}

// Update implements View.
func (v *FilePickerView) Update(msg tea.Msg) (View, tea.Cmd) {
	var cmd tea.Cmd
	v.picker, cmd = v.picker.Update(msg)
	if ok, path := v.picker.DidSelectFile(msg); ok {
		v.err = ""
		return v, tea.Batch(cmd, func() tea.Msg { return FileChosenMsg{Path: path} })
	}
	if ok, path := v.picker.DidSelectDisabledFile(msg); ok {
		v.err = path + " is not an image"
	}
	return v, cmd
}

// View implements View.
func (v *FilePickerView) View() string {
	s := Styles.Title.Render("Choose a photo") + "\n" +
		Styles.Muted.Render(v.picker.CurrentDirectory) + "\n\n" +
		v.picker.View()
	if v.err != "" {
		s += "\n" + Styles.Warning.Render(v.err)
	}
	return s
}
