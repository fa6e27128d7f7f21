package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"

	"pneumoscan/internal/models"

	"github.com/nfnt/resize"
)

// ErrNoImage is returned when there is nothing to preview.
var ErrNoImage = errors.New("no image to preview")

// Image is an encoded picture ready to be served.
type Image struct {
	Data        []byte
	ContentType string
}

// Service shrinks uploaded X-rays for on-page display.
type Service struct {
	maxSize uint
}

func NewService(maxSize int) *Service {
	if maxSize <= 0 {
		maxSize = 512
	}
	return &Service{maxSize: uint(maxSize)}
}

// Thumbnail returns the upload scaled to fit maxSize x maxSize, preserving
// the aspect ratio. Formats the standard decoders don't know (e.g. webp) and
// images already small enough are returned untouched.
func (s *Service) Thumbnail(upload *models.Upload) (*Image, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, ErrNoImage
	}

	original := &Image{Data: upload.Data, ContentType: upload.ContentType}

	img, format, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return original, nil
	}

	bounds := img.Bounds()
	if uint(bounds.Dx()) <= s.maxSize && uint(bounds.Dy()) <= s.maxSize {
		return original, nil
	}

	thumb := resize.Thumbnail(s.maxSize, s.maxSize, img, resize.Lanczos3)

	var buf bytes.Buffer
	contentType := "image/png"
	switch format {
	case "jpeg":
		contentType = "image/jpeg"
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85})
	default:
		err = png.Encode(&buf, thumb)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return &Image{Data: buf.Bytes(), ContentType: contentType}, nil
}
