package controller

import (
	"errors"
	"fmt"

	"dermascan/internal/camera"
	"dermascan/internal/predict"
)

// Kind classifies the recoverable failures the controller surfaces.
type Kind int

const (
	KindCameraUnavailable Kind = iota + 1
	KindNoImageSelected
	KindRequestFailed
	KindRequestTimeout
)

func (k Kind) String() string {
	switch k {
	case KindCameraUnavailable:
		return "CameraUnavailable"
	case KindNoImageSelected:
		return "NoImageSelected"
	case KindRequestFailed:
		return "RequestFailed"
	case KindRequestTimeout:
		return "RequestTimeout"
	default:
		return "Unknown"
	}
}

// Error is a classified controller failure. errors.Is matches on Kind, so
// errors.Is(err, ErrRequestFailed) holds for any RequestFailed error.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrCameraUnavailable = &Error{Kind: KindCameraUnavailable}
	ErrNoImageSelected   = &Error{Kind: KindNoImageSelected}
	ErrRequestFailed     = &Error{Kind: KindRequestFailed}
	ErrRequestTimeout    = &Error{Kind: KindRequestTimeout}
)

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// classifyRequest maps a prediction error to RequestTimeout (deadline or
// user abort) or RequestFailed (everything else).
func classifyRequest(err error) *Error {
	if errors.Is(err, predict.ErrTimeout) || errors.Is(err, predict.ErrCanceled) {
		return &Error{Kind: KindRequestTimeout, Op: "analyze", Err: err}
	}
	return &Error{Kind: KindRequestFailed, Op: "analyze", Err: err}
}

func cameraError(op string, err error) *Error {
	if err == nil {
		err = camera.ErrUnavailable
	}
	return &Error{Kind: KindCameraUnavailable, Op: op, Err: err}
}
