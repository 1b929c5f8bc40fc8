// Package imageio turns user-chosen files and camera frames into uploadable
// images with a decoded preview.
//
// Decoding registers JPEG, PNG and GIF (stdlib), plus BMP, TIFF and WebP
// from golang.org/x/image. Phone photos are auto-oriented from EXIF.
package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SnapshotName is the file name given to frames captured from the camera.
const SnapshotName = "camera_snap.jpg"

// DefaultJPEGQuality is used when re-encoding frames and downscaled uploads.
const DefaultJPEGQuality = 90

var (
	// ErrNotImage is returned when the bytes are not a recognised image type.
	ErrNotImage = errors.New("not an image")
	// ErrEmpty is returned for zero-length input.
	ErrEmpty = errors.New("empty file")
)

// Image is a selected photo: the bytes sent to the prediction service plus
// the decoded bitmap used for the preview.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte

	Width  int
	Height int
	Format string // decoder name: "jpeg", "png", "webp", ...

	decoded image.Image
}

// Decoded returns the decoded bitmap.
func (img *Image) Decoded() image.Image {
	return img.decoded
}

// Size returns the payload size in bytes.
func (img *Image) Size() int {
	return len(img.Data)
}

// ReadFile reads and decodes the image at path.
func ReadFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Load(filepath.Base(path), data)
}

// Load sniffs the MIME type of data and decodes it for display.
// The bytes are kept as-is for upload.
func Load(name string, data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%s (%s): %w", name, mt.String(), ErrNotImage)
	}
	decoded, format, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: decode: %w", name, err)
	}
	b := decoded.Bounds()
	return &Image{
		Name:     name,
		MIMEType: mt.String(),
		Data:     data,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   format,
		decoded:  decoded,
	}, nil
}

// FromFrame encodes a captured frame as a JPEG snapshot.
func FromFrame(frame image.Image, quality int) (*Image, error) {
	if frame == nil {
		return nil, fmt.Errorf("frame: %w", ErrEmpty)
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	b := frame.Bounds()
	return &Image{
		Name:     SnapshotName,
		MIMEType: "image/jpeg",
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   "jpeg",
		decoded:  frame,
	}, nil
}

// ForUpload returns an image whose longest side is at most maxDim pixels.
// Images already within bounds (or maxDim <= 0) are returned unchanged so
// their original bytes are sent. PNG stays PNG; everything else becomes JPEG.
func (img *Image) ForUpload(maxDim, quality int) (*Image, error) {
	if maxDim <= 0 || img.decoded == nil || (img.Width <= maxDim && img.Height <= maxDim) {
		return img, nil
	}
	resized := imaging.Fit(img.decoded, maxDim, maxDim, imaging.Lanczos)

	format, mimeType, ext := imaging.JPEG, "image/jpeg", ".jpg"
	if img.Format == "png" {
		format, mimeType, ext = imaging.PNG, "image/png", ".png"
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", img.Name, err)
	}
	b := resized.Bounds()
	return &Image{
		Name:     strings.TrimSuffix(img.Name, filepath.Ext(img.Name)) + ext,
		MIMEType: mimeType,
		Data:     buf.Bytes(),
		Width:    b.Dx(),
		Height:   b.Dy(),
		Format:   strings.TrimPrefix(ext, "."),
		decoded:  resized,
	}, nil
}

func decode(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}
	return img, format, nil
}
