package ui

// AppMode says which layer receives key input.
type AppMode int

const (
	ModeMain AppMode = iota
	ModeFilePicker
)

func (m AppMode) String() string {
	switch m {
	case ModeMain:
		return "Main"
	case ModeFilePicker:
		return "FilePicker"
	default:
		return "Unknown"
	}
}
