package ui

import (
	"errors"
	"path/filepath"

	"dermascan/internal/camera"
	"dermascan/internal/controller"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

func (a *appModelAdapter) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.Controller.Shutdown()
		return a, tea.Quit
	}
	if top, ok := a.Overlays.Peek(); ok {
		if top.IsDismissKey(msg.String()) {
			a.closeOverlay()
			return a, nil
		}
		cmd, _ := a.Overlays.UpdateTop(msg)
		return a, cmd
	}
	if a.KeyHandler != nil {
		if consumed, cmd := a.KeyHandler.Handle(msg, a.Controller.Phase()); consumed {
			return a, cmd
		}
	}
	return a, nil
}

func (a *appModelAdapter) handleOpenFilePicker() (tea.Model, tea.Cmd) {
	if a.Mode == ModeFilePicker {
		return a, nil
	}
	height := 0
	if a.height > 0 {
		height = max(a.height-10, 5)
	}
	v := NewFilePickerView(a.Options.StartDir, height)
	a.Overlays.Push(Overlay{View: v, Title: "Upload", Dismiss: "esc"})
	a.Mode = ModeFilePicker
	return a, v.Init()
}

func (a *AppModel) closeOverlay() {
	a.Overlays.Pop()
	if a.Overlays.Len() == 0 {
		a.Mode = ModeMain
	}
}

func (a *appModelAdapter) handleFileLoaded(msg fileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.Controller.RejectFile(filepath.Base(msg.path), msg.err)
		return a, nil
	}
	if a.Controller.SelectFile(msg.image) {
		a.liveFrame = ""
		a.logger.Info("image selected",
			zap.String("file", msg.image.Name),
			zap.String("mime", msg.image.MIMEType),
			zap.Int("bytes", msg.image.Size()))
	}
	return a, nil
}

func (a *appModelAdapter) handleOpenCamera() (tea.Model, tea.Cmd) {
	token, ok := a.Controller.RequestCamera()
	if !ok {
		return a, nil
	}
	a.cameraToken = token
	a.liveFrame = ""
	return a, tea.Batch(openCameraCmd(a.Camera, a.Options.Camera, token), a.spinner.Tick)
}

func (a *appModelAdapter) handleCameraOpened(msg cameraOpenedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.Controller.CameraFailed(msg.token, msg.err)
		return a, nil
	}
	if !a.Controller.CameraOpened(msg.token, msg.stream) {
		return a, nil
	}
	return a, grabFrameCmd(msg.stream, msg.token)
}

// liveStream returns the open stream when token is the current capture.
func (a *AppModel) liveStream(token uint64) camera.Stream {
	if token != a.cameraToken || a.Controller.Phase() != controller.PhaseCapturing {
		return nil
	}
	return a.Controller.Session().Stream
}

func (a *appModelAdapter) handleFrameTick(msg frameTickMsg) (tea.Model, tea.Cmd) {
	s := a.liveStream(msg.token)
	if s == nil {
		return a, nil
	}
	return a, grabFrameCmd(s, msg.token)
}

func (a *appModelAdapter) handleFrame(msg frameMsg) (tea.Model, tea.Cmd) {
	if a.liveStream(msg.token) == nil {
		return a, nil
	}
	switch {
	case msg.err == nil:
		a.liveFrame = thumbnail(msg.frame)
	case errors.Is(msg.err, camera.ErrClosed):
		return a, nil
	default:
		a.logger.Debug("frame grab failed", zap.Error(msg.err))
	}
	return a, frameTickCmd(a.Options.FrameInterval, msg.token)
}

func (a *appModelAdapter) handleCapture() (tea.Model, tea.Cmd) {
	s := a.liveStream(a.cameraToken)
	if s == nil {
		return a, nil
	}
	return a, captureCmd(s, a.cameraToken, a.Options.JPEGQuality)
}

func (a *appModelAdapter) handleCaptured(msg capturedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.Controller.CaptureFailed(msg.token, msg.err)
		return a, nil
	}
	if a.Controller.Capture(msg.token, msg.image) {
		a.liveFrame = ""
		a.logger.Info("photo captured",
			zap.Int("width", msg.image.Width),
			zap.Int("height", msg.image.Height))
	}
	return a, nil
}

func (a *appModelAdapter) handleCancel() (tea.Model, tea.Cmd) {
	switch a.Controller.Phase() {
	case controller.PhaseCapturing:
		a.Controller.CancelCamera()
		a.liveFrame = ""
	case controller.PhaseAnalyzing:
		a.Controller.Abort()
	default:
		a.Controller.DismissNotice()
	}
	return a, nil
}

func (a *appModelAdapter) handleAnalyze() (tea.Model, tea.Cmd) {
	req, err := a.Controller.Analyze(a.ctx)
	if err != nil || req == nil {
		return a, nil
	}
	a.logger.Info("analyze", zap.Uint64("seq", req.Seq), zap.String("file", req.Image.Name))
	return a, tea.Batch(
		analyzeCmd(a.Predictor, req, a.Options.UploadMaxDimension, a.Options.JPEGQuality),
		a.spinner.Tick,
	)
}

func (a *appModelAdapter) handleAnalyzeDone(msg analyzeDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		a.Controller.AnalyzeFailed(msg.seq, msg.err)
		return a, nil
	}
	if a.Controller.AnalyzeSucceeded(msg.seq, msg.result) {
		a.logger.Info("analyze done",
			zap.Uint64("seq", msg.seq),
			zap.String("disease", msg.result.Disease),
			zap.Float64("confidence", msg.result.Confidence))
	}
	return a, nil
}
