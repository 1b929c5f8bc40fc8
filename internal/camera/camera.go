// Package camera provides the live-capture capability used by the capture
// panel: open a stream (rear-facing where available), grab still frames,
// release the device.
package camera

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrUnavailable is returned when no camera can be opened, either because
	// access is denied or no device exists.
	ErrUnavailable = errors.New("camera unavailable")
	// ErrNoFrame is returned when an open stream yields no image.
	ErrNoFrame = errors.New("no frame")
	// ErrClosed is returned by Snapshot after Close.
	ErrClosed = errors.New("stream closed")
)

// Facing selects which camera to prefer.
type Facing string

const (
	FacingAny         Facing = ""
	FacingEnvironment Facing = "environment" // rear camera on phones and tablets
	FacingUser        Facing = "user"
)

// Options configures Open. RearDevice is the device index of the
// environment-facing camera, or -1 when unknown. Device is the fallback.
type Options struct {
	Facing     Facing
	RearDevice int
	Device     int
	Width      int
	Height     int
}

// Camera opens capture sessions.
type Camera interface {
	Open(ctx context.Context, opts Options) (Stream, error)
}

// Stream is a live capture session. Close stops every track and must be
// safe to call more than once.
type Stream interface {
	Snapshot() (image.Image, error)
	Close() error
}

// candidates returns device indexes to try, preferred first. The rear
// camera is a preference only; Device is always tried as a fallback.
func candidates(opts Options) []int {
	if opts.Facing == FacingEnvironment && opts.RearDevice >= 0 && opts.RearDevice != opts.Device {
		return []int{opts.RearDevice, opts.Device}
	}
	return []int{opts.Device}
}
