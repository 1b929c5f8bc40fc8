//go:build gocv

package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Device is the system camera, captured through OpenCV.
type Device struct{}

// NewDevice returns the system camera.
func NewDevice() *Device {
	return &Device{}
}

// Open implements Camera. It tries the rear camera first when asked for
// one and falls back to opts.Device.
func (d *Device) Open(ctx context.Context, opts Options) (Stream, error) {
	var lastErr error
	for _, id := range candidates(opts) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vc, err := gocv.OpenVideoCapture(id)
		if err != nil {
			lastErr = err
			continue
		}
		if !vc.IsOpened() {
			vc.Close()
			lastErr = fmt.Errorf("device %d did not open", id)
			continue
		}
		if opts.Width > 0 {
			vc.Set(gocv.VideoCaptureFrameWidth, float64(opts.Width))
		}
		if opts.Height > 0 {
			vc.Set(gocv.VideoCaptureFrameHeight, float64(opts.Height))
		}
		return &gocvStream{vc: vc, mat: gocv.NewMat()}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

// gocvStream serialises frame reads against Close; reads run in tea.Cmd
// goroutines while Close comes from the event loop.
type gocvStream struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	closed bool
}

func (s *gocvStream) Snapshot() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if ok := s.vc.Read(&s.mat); !ok || s.mat.Empty() {
		return nil, ErrNoFrame
	}
	return s.mat.ToImage()
}

func (s *gocvStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.vc.Close()
}
