package preview

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"pneumoscan/internal/models"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.SetGray(x, h/2, color.Gray{Y: 200})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnail_ScalesLargeImage(t *testing.T) {
	svc := NewService(100)

	out, err := svc.Thumbnail(&models.Upload{ContentType: "image/png", Data: encodePNG(t, 400, 200)})
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if out.ContentType != "image/png" {
		t.Errorf("Expected image/png, got %s", out.ContentType)
	}

	img, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("Thumbnail is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("Expected 100x50, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestThumbnail_KeepsJPEG(t *testing.T) {
	var buf bytes.Buffer
	jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 300, 300)), nil)

	out, err := NewService(64).Thumbnail(&models.Upload{ContentType: "image/jpeg", Data: buf.Bytes()})
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if out.ContentType != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", out.ContentType)
	}
}

func TestThumbnail_SmallOrUnknownPassThrough(t *testing.T) {
	svc := NewService(512)

	small := encodePNG(t, 10, 10)
	out, err := svc.Thumbnail(&models.Upload{ContentType: "image/png", Data: small})
	if err != nil || !bytes.Equal(out.Data, small) {
		t.Errorf("Expected small image untouched, err=%v", err)
	}

	webp := []byte("RIFF....WEBPVP8 ")
	out, err = svc.Thumbnail(&models.Upload{ContentType: "image/webp", Data: webp})
	if err != nil || !bytes.Equal(out.Data, webp) || out.ContentType != "image/webp" {
		t.Errorf("Expected undecodable image untouched, err=%v", err)
	}
}

func TestThumbnail_NoImage(t *testing.T) {
	if _, err := NewService(0).Thumbnail(nil); !errors.Is(err, ErrNoImage) {
		t.Errorf("Expected ErrNoImage, got %v", err)
	}
}
