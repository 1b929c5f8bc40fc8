package predict

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus is wrapped by StatusError for non-2xx responses.
	ErrStatus = errors.New("unexpected status")
	// ErrMalformed marks a 2xx body that is not a valid prediction.
	ErrMalformed = errors.New("malformed response")
	// ErrTimeout marks a request that exceeded the client timeout.
	ErrTimeout = errors.New("request timed out")
	// ErrCanceled marks a request aborted by its caller.
	ErrCanceled = errors.New("request canceled")
	// ErrTransport marks a request that never got a response.
	ErrTransport = errors.New("transport failure")
)

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

// Unwrap lets errors.Is(err, ErrStatus) match.
func (e *StatusError) Unwrap() error {
	return ErrStatus
}
