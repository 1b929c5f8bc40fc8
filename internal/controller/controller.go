// Package controller is the UI state machine: it moves between Idle,
// Capturing, Previewing and Analyzing in response to user actions and
// completions, and owns the Session.
//
// Every method must be called from a single goroutine (the Bubble Tea
// event loop). Blocking work (opening the camera, grabbing frames, the
// prediction request) happens elsewhere and reports back through the
// *Opened/*Succeeded/*Failed methods, tagged with the token or sequence
// number handed out when the work started so late completions are dropped.
package controller

import (
	"context"
	"errors"
	"fmt"

	"dermascan/internal/camera"
	"dermascan/internal/imageio"
	"dermascan/internal/predict"

	"go.uber.org/zap"
)

// Notice is a user-visible message.
type Notice struct {
	Kind Kind // zero for informational notices
	Text string
}

// IsError reports whether the notice reports a failure.
func (n *Notice) IsError() bool {
	return n != nil && n.Kind != 0
}

// Request is one analyze call to run off the event loop.
type Request struct {
	Seq   uint64
	Ctx   context.Context
	Image *imageio.Image
}

// Snapshot is a read-only view of the controller for rendering.
type Snapshot struct {
	Phase      Phase
	Image      *imageio.Image
	Result     *predict.Result
	Notice     *Notice
	CameraLive bool
}

// Controller drives the phases. The zero value is not usable; use New.
type Controller struct {
	phase   Phase
	session Session
	result  *predict.Result
	notice  *Notice

	cameraToken uint64
	requestSeq  uint64
	cancel      context.CancelFunc

	logger *zap.Logger
}

// New returns a controller in PhaseIdle.
func New(logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{phase: PhaseIdle, logger: logger}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase { return c.phase }

// Session returns the session. Callers must not mutate it.
func (c *Controller) Session() *Session { return &c.session }

// Snapshot returns the state needed to render.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Phase:      c.phase,
		Image:      c.session.Image,
		Result:     c.result,
		Notice:     c.notice,
		CameraLive: c.session.Stream != nil,
	}
}

// RequestCamera enters Capturing. The returned token must accompany the
// CameraOpened or CameraFailed call for the open attempt. ok is false when
// the camera cannot be requested now (already capturing, or analyzing).
func (c *Controller) RequestCamera() (token uint64, ok bool) {
	if c.phase == PhaseCapturing || c.phase == PhaseAnalyzing {
		return 0, false
	}
	c.notice = nil
	c.cameraToken++
	c.setPhase(PhaseCapturing)
	return c.cameraToken, true
}

// CameraOpened attaches a live stream. A stream arriving for a stale token
// or after the panel closed is released immediately and false is returned.
func (c *Controller) CameraOpened(token uint64, s camera.Stream) bool {
	if s == nil {
		return false
	}
	if token != c.cameraToken || c.phase != PhaseCapturing || c.session.Stream != nil {
		c.closeStream(s)
		return false
	}
	c.session.Stream = s
	c.logger.Debug("camera opened", zap.Uint64("token", token))
	return true
}

// CameraFailed closes the capture panel with a CameraUnavailable notice.
func (c *Controller) CameraFailed(token uint64, err error) {
	if token != c.cameraToken || c.phase != PhaseCapturing {
		return
	}
	cerr := cameraError("open", err)
	c.logger.Warn("camera unavailable", zap.Error(err))
	c.releaseStream()
	c.setPhase(c.restingPhase())
	c.notice = &Notice{Kind: cerr.Kind, Text: "Camera access denied or not available."}
}

// Capture stores a captured frame as the selected image, releases the
// camera and enters Previewing. It is ignored unless capturing with token.
func (c *Controller) Capture(token uint64, img *imageio.Image) bool {
	if token != c.cameraToken || c.phase != PhaseCapturing || img == nil {
		return false
	}
	c.releaseStream()
	c.replaceImage(img)
	c.notice = nil
	c.setPhase(PhasePreviewing)
	return true
}

// CaptureFailed keeps the camera open and reports the failed grab.
func (c *Controller) CaptureFailed(token uint64, err error) {
	if token != c.cameraToken || c.phase != PhaseCapturing {
		return
	}
	c.logger.Warn("frame capture failed", zap.Error(err))
	c.notice = &Notice{Kind: KindCameraUnavailable, Text: "Could not capture a photo. Try again."}
}

// CancelCamera releases the stream and returns to Previewing when an image
// is still selected, otherwise Idle.
func (c *Controller) CancelCamera() {
	if c.phase != PhaseCapturing {
		return
	}
	c.releaseStream()
	c.notice = nil
	c.setPhase(c.restingPhase())
}

// SelectFile replaces the selection with an uploaded image. Any camera
// session is released and any in-flight request abandoned.
func (c *Controller) SelectFile(img *imageio.Image) bool {
	if img == nil {
		return false
	}
	c.abandonRequest()
	c.releaseStream()
	c.replaceImage(img)
	c.notice = nil
	c.setPhase(PhasePreviewing)
	return true
}

// RejectFile reports a chosen file that could not be used as an image.
// The current selection is kept.
func (c *Controller) RejectFile(name string, err error) {
	c.logger.Warn("file rejected", zap.String("file", name), zap.Error(err))
	c.notice = &Notice{Text: fmt.Sprintf("%s is not a supported image.", name)}
	if errors.Is(err, imageio.ErrEmpty) {
		c.notice.Text = fmt.Sprintf("%s is empty.", name)
	}
}

// Clear returns exactly to Idle from any phase.
func (c *Controller) Clear() {
	c.abandonRequest()
	c.releaseStream()
	c.session.Image = nil
	c.result = nil
	c.notice = nil
	c.setPhase(PhaseIdle)
}

// Analyze starts a prediction for the selected image. It returns a
// NoImageSelected error (and issues nothing) without a selection, and nil
// when analysis is not available in the current phase.
func (c *Controller) Analyze(parent context.Context) (*Request, error) {
	if c.session.Image == nil {
		err := &Error{Kind: KindNoImageSelected, Op: "analyze"}
		c.notice = &Notice{Kind: err.Kind, Text: "Please select or capture an image first."}
		return nil, err
	}
	if c.phase != PhasePreviewing {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(parent)
	c.requestSeq++
	c.cancel = cancel
	c.result = nil
	c.notice = nil
	c.setPhase(PhaseAnalyzing)
	return &Request{Seq: c.requestSeq, Ctx: ctx, Image: c.session.Image}, nil
}

// AnalyzeSucceeded shows the result and returns to Previewing.
func (c *Controller) AnalyzeSucceeded(seq uint64, r *predict.Result) bool {
	if r == nil {
		c.AnalyzeFailed(seq, fmt.Errorf("%w: empty result", predict.ErrMalformed))
		return false
	}
	if !c.current(seq) {
		return false
	}
	c.finishRequest()
	c.result = r
	c.setPhase(PhasePreviewing)
	return true
}

// AnalyzeFailed restores the analyze action with an error notice. The
// image and preview are kept so the user can retry.
func (c *Controller) AnalyzeFailed(seq uint64, err error) bool {
	if !c.current(seq) {
		return false
	}
	c.finishRequest()
	cerr := classifyRequest(err)
	c.logger.Warn("analyze failed", zap.Stringer("kind", cerr.Kind), zap.Error(err))
	text := "Server error: could not analyze the image. Check that the service is running."
	if cerr.Kind == KindRequestTimeout {
		text = "The analysis timed out or was cancelled."
	}
	c.result = nil
	c.notice = &Notice{Kind: cerr.Kind, Text: text}
	c.setPhase(PhasePreviewing)
	return true
}

// Abort cancels the in-flight request. Its completion arrives as a
// RequestTimeout failure.
func (c *Controller) Abort() bool {
	if c.phase != PhaseAnalyzing || c.cancel == nil {
		return false
	}
	c.cancel()
	return true
}

// Shutdown releases every external resource.
func (c *Controller) Shutdown() {
	c.abandonRequest()
	c.releaseStream()
}

// DismissNotice hides the current notice.
func (c *Controller) DismissNotice() {
	c.notice = nil
}

// Check verifies the controller invariants. Used by tests.
func (c *Controller) Check() error {
	s := c.session
	switch {
	case s.Stream != nil && c.phase != PhaseCapturing:
		return fmt.Errorf("stream open in %s", c.phase)
	case c.phase == PhaseIdle && (s.Image != nil || c.result != nil):
		return fmt.Errorf("idle with selection or result")
	case (c.phase == PhasePreviewing || c.phase == PhaseAnalyzing) && s.Image == nil:
		return fmt.Errorf("%s without an image", c.phase)
	case c.result != nil && s.Image == nil:
		return fmt.Errorf("result without an image")
	case c.phase == PhaseAnalyzing && c.result != nil:
		return fmt.Errorf("result shown while analyzing")
	case c.phase != PhaseAnalyzing && c.cancel != nil:
		return fmt.Errorf("request pending in %s", c.phase)
	}
	return nil
}

func (c *Controller) restingPhase() Phase {
	if c.session.Image != nil {
		return PhasePreviewing
	}
	return PhaseIdle
}

func (c *Controller) replaceImage(img *imageio.Image) {
	c.session.Image = img
	c.result = nil
}

func (c *Controller) current(seq uint64) bool {
	return c.phase == PhaseAnalyzing && seq == c.requestSeq
}

func (c *Controller) finishRequest() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// abandonRequest cancels any in-flight request and bumps the sequence so
// its completion is dropped.
func (c *Controller) abandonRequest() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
		c.requestSeq++
	}
}

func (c *Controller) releaseStream() {
	if err := c.session.releaseStream(); err != nil {
		c.logger.Warn("camera release failed", zap.Error(err))
	}
}

func (c *Controller) closeStream(s camera.Stream) {
	if err := s.Close(); err != nil {
		c.logger.Warn("camera release failed", zap.Error(err))
	}
}

func (c *Controller) setPhase(p Phase) {
	if p != c.phase {
		c.logger.Debug("phase", zap.Stringer("from", c.phase), zap.Stringer("to", p))
	}
	c.phase = p
}
