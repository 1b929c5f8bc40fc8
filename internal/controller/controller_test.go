package controller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"testing"

	"dermascan/internal/camera"
	"dermascan/internal/imageio"
	"dermascan/internal/predict"
)

type fakeStream struct {
	closed int
}

func (s *fakeStream) Snapshot() (image.Image, error) {
	if s.closed > 0 {
		return nil, camera.ErrClosed
	}
	return image.NewNRGBA(image.Rect(0, 0, 2, 2)), nil
}

func (s *fakeStream) Close() error {
	s.closed++
	return nil
}

func testImage(t *testing.T, name string) *imageio.Image {
	t.Helper()
	img, err := imageio.FromFrame(image.NewNRGBA(image.Rect(0, 0, 3, 3)), 80)
	if err != nil {
		t.Fatal(err)
	}
	img.Name = name
	return img
}

func mustCheck(t *testing.T, c *Controller) {
	t.Helper()
	if err := c.Check(); err != nil {
		t.Fatalf("invariant violated in %s: %v", c.Phase(), err)
	}
}

// openCamera drives Idle/Previewing -> Capturing with a live stream.
func openCamera(t *testing.T, c *Controller) (uint64, *fakeStream) {
	t.Helper()
	token, ok := c.RequestCamera()
	if !ok {
		t.Fatalf("RequestCamera refused in %s", c.Phase())
	}
	s := &fakeStream{}
	if !c.CameraOpened(token, s) {
		t.Fatal("CameraOpened rejected a current stream")
	}
	mustCheck(t, c)
	return token, s
}

func TestNew_StartsIdle(t *testing.T) {
	c := New(nil)
	if c.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want Idle", c.Phase())
	}
	snap := c.Snapshot()
	if snap.Image != nil || snap.Result != nil || snap.CameraLive || snap.Notice != nil {
		t.Errorf("unexpected initial snapshot %+v", snap)
	}
	mustCheck(t, c)
}

func TestSelectFile_EntersPreviewing(t *testing.T) {
	c := New(nil)
	img := testImage(t, "arm.jpg")
	c.SelectFile(img)

	if c.Phase() != PhasePreviewing {
		t.Fatalf("phase = %s, want Previewing", c.Phase())
	}
	if c.Session().Image != img {
		t.Error("selected image not stored")
	}
	if c.Snapshot().Result != nil {
		t.Error("result must not appear before analysis")
	}
	mustCheck(t, c)

	next := testImage(t, "leg.jpg")
	c.SelectFile(next)
	if c.Session().Image != next || c.Phase() != PhasePreviewing {
		t.Error("new upload should replace the selection and stay in Previewing")
	}
}

func TestCapture_StoresSnapshotAndReleasesCamera(t *testing.T) {
	c := New(nil)
	token, s := openCamera(t, c)

	snap := testImage(t, imageio.SnapshotName)
	if !c.Capture(token, snap) {
		t.Fatal("Capture rejected")
	}
	if c.Phase() != PhasePreviewing {
		t.Errorf("phase = %s, want Previewing", c.Phase())
	}
	if s.closed != 1 {
		t.Errorf("stream closed %d times, want 1", s.closed)
	}
	if c.Session().Stream != nil {
		t.Error("stream still attached")
	}
	if c.Session().Image != snap {
		t.Error("captured image not selected")
	}
	mustCheck(t, c)
}

func TestCapture_OverShownResultDiscardsIt(t *testing.T) {
	c := New(nil)
	c.SelectFile(testImage(t, "prior.png"))
	req, _ := c.Analyze(context.Background())
	c.AnalyzeSucceeded(req.Seq, &predict.Result{Disease: "Eczema", Confidence: 0.7})
	if c.Snapshot().Result == nil {
		t.Fatal("setup: result not shown")
	}

	token, s := openCamera(t, c)
	snap := testImage(t, imageio.SnapshotName)
	if !c.Capture(token, snap) {
		t.Fatal("Capture rejected")
	}

	if c.Phase() != PhasePreviewing {
		t.Errorf("phase = %s, want Previewing", c.Phase())
	}
	if c.Session().Image != snap {
		t.Error("captured image not selected")
	}
	if c.Snapshot().Result != nil {
		t.Error("result of the replaced image must be discarded")
	}
	if s.closed != 1 {
		t.Errorf("stream closed %d times, want 1", s.closed)
	}
	mustCheck(t, c)
}

func TestCancelCamera_KeepsPriorSelection(t *testing.T) {
	c := New(nil)
	prior := testImage(t, "prior.png")
	c.SelectFile(prior)
	req, _ := c.Analyze(context.Background())
	c.AnalyzeSucceeded(req.Seq, &predict.Result{Disease: "Eczema", Confidence: 0.7})

	_, s := openCamera(t, c)
	c.CancelCamera()

	if c.Phase() != PhasePreviewing {
		t.Errorf("phase = %s, want Previewing", c.Phase())
	}
	if c.Session().Image != prior {
		t.Error("prior selection lost")
	}
	if c.Snapshot().Result == nil {
		t.Error("result of the unchanged image should survive a cancelled capture")
	}
	if s.closed != 1 || c.Session().Stream != nil {
		t.Errorf("camera not released (closed=%d)", s.closed)
	}
	mustCheck(t, c)
}

func TestCancelCamera_WithoutSelectionGoesIdle(t *testing.T) {
	c := New(nil)
	_, s := openCamera(t, c)
	c.CancelCamera()
	if c.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want Idle", c.Phase())
	}
	if s.closed != 1 {
		t.Error("camera not released")
	}
	mustCheck(t, c)
}

func TestCameraFailed(t *testing.T) {
	c := New(nil)
	token, _ := c.RequestCamera()
	c.CameraFailed(token, fmt.Errorf("permission denied: %w", camera.ErrUnavailable))

	if c.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want Idle", c.Phase())
	}
	n := c.Snapshot().Notice
	if n == nil || n.Kind != KindCameraUnavailable {
		t.Fatalf("notice = %+v, want CameraUnavailable", n)
	}
	mustCheck(t, c)

	img := testImage(t, "kept.jpg")
	c.SelectFile(img)
	token, _ = c.RequestCamera()
	c.CameraFailed(token, nil)
	if c.Phase() != PhasePreviewing || c.Session().Image != img {
		t.Error("camera failure with a selection should return to Previewing with it")
	}
}

func TestCameraOpened_LateStreamIsReleased(t *testing.T) {
	c := New(nil)
	token, _ := c.RequestCamera()
	c.CancelCamera()

	late := &fakeStream{}
	if c.CameraOpened(token, late) {
		t.Error("late stream accepted after cancel")
	}
	if late.closed != 1 {
		t.Error("late stream not released")
	}

	old, _ := c.RequestCamera()
	c.Clear()
	current, _ := c.RequestCamera()
	stale := &fakeStream{}
	if c.CameraOpened(old, stale) || stale.closed != 1 {
		t.Error("stream for a superseded request must be released")
	}
	live := &fakeStream{}
	if !c.CameraOpened(current, live) {
		t.Error("current stream rejected")
	}
	mustCheck(t, c)
}

func TestRequestCamera_RefusedWhileCapturingOrAnalyzing(t *testing.T) {
	c := New(nil)
	openCamera(t, c)
	if _, ok := c.RequestCamera(); ok {
		t.Error("second camera request accepted while capturing")
	}

	c.SelectFile(testImage(t, "a.jpg"))
	if _, err := c.Analyze(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.RequestCamera(); ok {
		t.Error("camera request accepted while analyzing")
	}
}

func TestClear_FromEveryPhaseReturnsToIdle(t *testing.T) {
	setups := map[string]func(t *testing.T, c *Controller) *fakeStream{
		"idle": func(t *testing.T, c *Controller) *fakeStream { return nil },
		"capturing": func(t *testing.T, c *Controller) *fakeStream {
			_, s := openCamera(t, c)
			return s
		},
		"capturing over selection": func(t *testing.T, c *Controller) *fakeStream {
			c.SelectFile(testImage(t, "a.jpg"))
			_, s := openCamera(t, c)
			return s
		},
		"previewing": func(t *testing.T, c *Controller) *fakeStream {
			c.SelectFile(testImage(t, "a.jpg"))
			return nil
		},
		"previewing with result": func(t *testing.T, c *Controller) *fakeStream {
			c.SelectFile(testImage(t, "a.jpg"))
			req, _ := c.Analyze(context.Background())
			c.AnalyzeSucceeded(req.Seq, &predict.Result{Disease: "Acne", Confidence: 0.4})
			return nil
		},
		"analyzing": func(t *testing.T, c *Controller) *fakeStream {
			c.SelectFile(testImage(t, "a.jpg"))
			c.Analyze(context.Background())
			return nil
		},
	}
	for name, setup := range setups {
		t.Run(name, func(t *testing.T) {
			c := New(nil)
			s := setup(t, c)
			c.Clear()

			snap := c.Snapshot()
			if snap.Phase != PhaseIdle || snap.Image != nil || snap.Result != nil || snap.CameraLive {
				t.Errorf("not Idle after Clear: %+v", snap)
			}
			if s != nil && s.closed != 1 {
				t.Errorf("camera closed %d times, want 1", s.closed)
			}
			mustCheck(t, c)
		})
	}
}

func TestAnalyze_NoSelection(t *testing.T) {
	c := New(nil)
	req, err := c.Analyze(context.Background())
	if req != nil {
		t.Fatal("request issued with no selection")
	}
	if !errors.Is(err, ErrNoImageSelected) {
		t.Errorf("err = %v, want NoImageSelected", err)
	}
	if c.Phase() != PhaseIdle {
		t.Errorf("phase changed to %s", c.Phase())
	}
	if n := c.Snapshot().Notice; n == nil || n.Kind != KindNoImageSelected {
		t.Errorf("notice = %+v", n)
	}
}

func TestAnalyze_NotReentrant(t *testing.T) {
	c := New(nil)
	c.SelectFile(testImage(t, "a.jpg"))
	first, err := c.Analyze(context.Background())
	if err != nil || first == nil {
		t.Fatalf("Analyze: %v", err)
	}
	if c.Phase() != PhaseAnalyzing {
		t.Fatalf("phase = %s", c.Phase())
	}
	second, err := c.Analyze(context.Background())
	if second != nil || err != nil {
		t.Errorf("second Analyze while in flight = (%v, %v), want (nil, nil)", second, err)
	}
	mustCheck(t, c)
}

func TestAnalyze_Success(t *testing.T) {
	c := New(nil)
	img := testImage(t, "a.jpg")
	c.SelectFile(img)
	req, _ := c.Analyze(context.Background())
	if req.Image != img {
		t.Error("request must carry the selected image")
	}

	res := &predict.Result{Disease: "Leaf Blight", Confidence: 0.92}
	if !c.AnalyzeSucceeded(req.Seq, res) {
		t.Fatal("result rejected")
	}
	if c.Phase() != PhasePreviewing || c.Snapshot().Result != res {
		t.Error("result not shown in Previewing")
	}
	if req.Ctx.Err() == nil {
		t.Error("request context should be released after completion")
	}
	mustCheck(t, c)

	c.SelectFile(testImage(t, "b.jpg"))
	if c.Snapshot().Result != nil {
		t.Error("replacing the image must hide the old result")
	}
}

func TestAnalyze_FailureRestoresPreview(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"status", &predict.StatusError{Code: 500}, KindRequestFailed},
		{"malformed", predict.ErrMalformed, KindRequestFailed},
		{"transport", predict.ErrTransport, KindRequestFailed},
		{"timeout", predict.ErrTimeout, KindRequestTimeout},
		{"aborted", predict.ErrCanceled, KindRequestTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(nil)
			img := testImage(t, "a.jpg")
			c.SelectFile(img)
			req, _ := c.Analyze(context.Background())

			c.AnalyzeFailed(req.Seq, tt.err)
			if c.Phase() != PhasePreviewing {
				t.Errorf("phase = %s, want Previewing", c.Phase())
			}
			if c.Session().Image != img {
				t.Error("preview image changed on failure")
			}
			snap := c.Snapshot()
			if snap.Result != nil {
				t.Error("no result may be shown after failure")
			}
			if snap.Notice == nil || snap.Notice.Kind != tt.want {
				t.Errorf("notice = %+v, want %s", snap.Notice, tt.want)
			}
			mustCheck(t, c)

			if again, _ := c.Analyze(context.Background()); again == nil {
				t.Error("retry should be possible after failure")
			}
		})
	}
}

func TestAnalyze_StaleCompletionsDropped(t *testing.T) {
	c := New(nil)
	c.SelectFile(testImage(t, "a.jpg"))
	req, _ := c.Analyze(context.Background())
	c.Clear()

	if req.Ctx.Err() == nil {
		t.Error("Clear should cancel the in-flight request")
	}
	if c.AnalyzeSucceeded(req.Seq, &predict.Result{Disease: "x", Confidence: 1}) {
		t.Error("late result accepted after Clear")
	}
	if c.Phase() != PhaseIdle {
		t.Errorf("phase = %s, want Idle", c.Phase())
	}

	c.SelectFile(testImage(t, "b.jpg"))
	old, _ := c.Analyze(context.Background())
	c.SelectFile(testImage(t, "c.jpg"))
	if c.AnalyzeFailed(old.Seq, predict.ErrTransport) {
		t.Error("late failure accepted after replacement")
	}
	if c.Snapshot().Notice != nil {
		t.Error("late failure must not surface a notice")
	}
	mustCheck(t, c)
}

func TestAbort(t *testing.T) {
	c := New(nil)
	if c.Abort() {
		t.Error("Abort outside Analyzing should be a no-op")
	}
	c.SelectFile(testImage(t, "a.jpg"))
	req, _ := c.Analyze(context.Background())
	if !c.Abort() {
		t.Fatal("Abort refused while analyzing")
	}
	if req.Ctx.Err() == nil {
		t.Error("request context not cancelled")
	}
	c.AnalyzeFailed(req.Seq, predict.ErrCanceled)
	if n := c.Snapshot().Notice; n == nil || n.Kind != KindRequestTimeout {
		t.Errorf("notice = %+v, want RequestTimeout", n)
	}
}

func TestSelectFile_WhileCapturingReleasesCamera(t *testing.T) {
	c := New(nil)
	_, s := openCamera(t, c)
	c.SelectFile(testImage(t, "upload.png"))
	if s.closed != 1 {
		t.Error("camera not released on upload")
	}
	if c.Phase() != PhasePreviewing {
		t.Errorf("phase = %s", c.Phase())
	}
	mustCheck(t, c)
}

func TestCaptureFailed_KeepsCameraOpen(t *testing.T) {
	c := New(nil)
	token, s := openCamera(t, c)
	c.CaptureFailed(token, camera.ErrNoFrame)
	if c.Phase() != PhaseCapturing || s.closed != 0 {
		t.Error("a failed grab should keep the camera open")
	}
	if !c.Snapshot().Notice.IsError() {
		t.Error("expected an error notice")
	}
}

func TestShutdown_ReleasesEverything(t *testing.T) {
	c := New(nil)
	_, s := openCamera(t, c)
	c.Shutdown()
	if s.closed != 1 {
		t.Error("camera not released on shutdown")
	}
}

func TestRejectFile_KeepsSelection(t *testing.T) {
	c := New(nil)
	img := testImage(t, "ok.jpg")
	c.SelectFile(img)
	c.RejectFile("notes.txt", imageio.ErrNotImage)
	if c.Session().Image != img || c.Phase() != PhasePreviewing {
		t.Error("rejected file must not disturb the selection")
	}
	if c.Snapshot().Notice == nil {
		t.Error("expected a notice")
	}
}

func TestError_IsMatchesKind(t *testing.T) {
	err := classifyRequest(fmt.Errorf("wrapped: %w", predict.ErrTimeout))
	if !errors.Is(err, ErrRequestTimeout) {
		t.Error("timeout not classified as RequestTimeout")
	}
	if errors.Is(err, ErrRequestFailed) {
		t.Error("timeout matched RequestFailed")
	}
	if !errors.Is(err, predict.ErrTimeout) {
		t.Error("cause lost")
	}
	if got := (&Error{Kind: KindNoImageSelected, Op: "analyze"}).Error(); got != "NoImageSelected: analyze" {
		t.Errorf("Error() = %q", got)
	}
}
