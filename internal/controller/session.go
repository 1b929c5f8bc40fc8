package controller

import (
	"dermascan/internal/camera"
	"dermascan/internal/imageio"
)

// Session is the state owned for one run of the app: the selected image and
// the live camera stream, if any. At most one image is selected; a new
// selection replaces the old one. Stream is non-nil only while the camera
// panel is shown.
type Session struct {
	Image  *imageio.Image
	Stream camera.Stream
}

// releaseStream stops the capture session if one is open.
func (s *Session) releaseStream() error {
	if s.Stream == nil {
		return nil
	}
	err := s.Stream.Close()
	s.Stream = nil
	return err
}
