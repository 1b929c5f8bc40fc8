package ui

import (
	"context"
	"time"

	"dermascan/internal/camera"
	"dermascan/internal/controller"
	"dermascan/internal/imageio"
	"dermascan/internal/predict"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	cameraOpenTimeout = 10 * time.Second
	healthTimeout     = 5 * time.Second
)

// HealthChecker is implemented by predictors that can probe the service.
type HealthChecker interface {
	Health(ctx context.Context) (string, error)
}

// openCameraCmd opens the camera off the event loop. A stream that arrives
// after the user moved on is released by the controller.
func openCameraCmd(cam camera.Camera, opts camera.Options, token uint64) tea.Cmd {
	return func() tea.Msg {
		if cam == nil {
			return cameraOpenedMsg{token: token, err: camera.ErrUnavailable}
		}
		ctx, cancel := context.WithTimeout(context.Background(), cameraOpenTimeout)
		defer cancel()
		s, err := cam.Open(ctx, opts)
		return cameraOpenedMsg{token: token, stream: s, err: err}
	}
}

// frameTickCmd schedules the next live-view refresh.
func frameTickCmd(interval time.Duration, token uint64) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return frameTickMsg{token: token}
	})
}

// grabFrameCmd reads one frame for the live thumbnail.
func grabFrameCmd(s camera.Stream, token uint64) tea.Cmd {
	return func() tea.Msg {
		frame, err := s.Snapshot()
		return frameMsg{token: token, frame: frame, err: err}
	}
}

// captureCmd grabs a still and encodes it as camera_snap.jpg.
func captureCmd(s camera.Stream, token uint64, quality int) tea.Cmd {
	return func() tea.Msg {
		frame, err := s.Snapshot()
		if err != nil {
			return capturedMsg{token: token, err: err}
		}
		img, err := imageio.FromFrame(frame, quality)
		return capturedMsg{token: token, image: img, err: err}
	}
}

// loadFileCmd reads and decodes a chosen file.
func loadFileCmd(path string) tea.Cmd {
	return func() tea.Msg {
		img, err := imageio.ReadFile(path)
		return fileLoadedMsg{path: path, image: img, err: err}
	}
}

// analyzeCmd downsizes the image for upload and calls the predictor with
// the request's context, which the controller cancels on abort or clear.
func analyzeCmd(p predict.Predictor, req *controller.Request, maxDim, quality int) tea.Cmd {
	return func() tea.Msg {
		if p == nil {
			return analyzeDoneMsg{seq: req.Seq, err: predict.ErrTransport}
		}
		upload, err := req.Image.ForUpload(maxDim, quality)
		if err != nil {
			return analyzeDoneMsg{seq: req.Seq, err: err}
		}
		res, err := p.Predict(req.Ctx, upload)
		return analyzeDoneMsg{seq: req.Seq, result: res, err: err}
	}
}

// healthCmd probes the service once for the header.
func healthCmd(h HealthChecker) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), healthTimeout)
		defer cancel()
		status, err := h.Health(ctx)
		return healthMsg{status: status, err: err}
	}
}
