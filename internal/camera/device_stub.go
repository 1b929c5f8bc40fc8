//go:build !gocv

package camera

import (
	"context"
	"fmt"
)

// Device is the system camera. This build has no capture backend; build
// with -tags gocv to enable OpenCV capture.
type Device struct{}

// NewDevice returns the system camera.
func NewDevice() *Device {
	return &Device{}
}

// Open implements Camera.
func (d *Device) Open(ctx context.Context, opts Options) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: built without capture support (devices %v)", ErrUnavailable, candidates(opts))
}
