package ui

import (
	"image"

	"dermascan/internal/camera"
	"dermascan/internal/imageio"
	"dermascan/internal/predict"
)

// User intents, produced by key bindings.

// OpenFilePickerMsg opens the file picker overlay.
type OpenFilePickerMsg struct{}

// OpenCameraMsg asks for the rear camera.
type OpenCameraMsg struct{}

// CaptureMsg grabs a still from the live camera.
type CaptureMsg struct{}

// CancelMsg cancels the camera while capturing or aborts a running analysis.
type CancelMsg struct{}

// AnalyzeMsg submits the selected image.
type AnalyzeMsg struct{}

// ClearMsg resets everything to Idle.
type ClearMsg struct{}

// DismissNoticeMsg hides the notice line.
type DismissNoticeMsg struct{}

// QuitMsg releases resources and exits.
type QuitMsg struct{}

// FileChosenMsg is sent by the picker with the selected path.
type FileChosenMsg struct {
	Path string
}

// Completions of blocking work started by commands. Each carries the
// token or sequence number it was started with so the controller can drop
// stale ones.

type cameraOpenedMsg struct {
	token  uint64
	stream camera.Stream
	err    error
}

type frameTickMsg struct {
	token uint64
}

type frameMsg struct {
	token uint64
	frame image.Image
	err   error
}

type capturedMsg struct {
	token uint64
	image *imageio.Image
	err   error
}

type fileLoadedMsg struct {
	path  string
	image *imageio.Image
	err   error
}

type analyzeDoneMsg struct {
	seq    uint64
	result *predict.Result
	err    error
}

type healthMsg struct {
	status string
	err    error
}
