package camera

import (
	"context"
	"fmt"
	"image"
	"sync"

	"dermascan/internal/imageio"
)

// Static is a Camera whose every frame is the image stored at Path.
// It stands in for a device on machines without one.
type Static struct {
	Path string
}

// NewStatic returns a Camera that serves the image at path.
func NewStatic(path string) *Static {
	return &Static{Path: path}
}

// Open implements Camera.
func (s *Static) Open(ctx context.Context, _ Options) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imageio.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &staticStream{frame: img.Decoded()}, nil
}

type staticStream struct {
	mu     sync.Mutex
	frame  image.Image
	closed bool
}

func (s *staticStream) Snapshot() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.frame == nil {
		return nil, ErrNoFrame
	}
	return s.frame, nil
}

func (s *staticStream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
