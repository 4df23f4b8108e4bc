package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func createTestJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{255, 0, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func createTestPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 0, 255, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func dimensions(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessJPEG(t *testing.T) {
	photo, err := Process(bytes.NewReader(createTestJPEG(100, 100)))
	if err != nil {
		t.Fatalf("Process JPEG: %v", err)
	}
	if len(photo.Full) == 0 || len(photo.Thumbnail) == 0 {
		t.Error("expected non-empty photo and thumbnail")
	}
}

func TestProcessPNGBecomesJPEG(t *testing.T) {
	photo, err := Process(bytes.NewReader(createTestPNG(100, 100)))
	if err != nil {
		t.Fatalf("Process PNG: %v", err)
	}
	if !bytes.HasPrefix(photo.Full, []byte("\xff\xd8")) {
		t.Error("expected JPEG output")
	}
}

func TestProcessDownscale(t *testing.T) {
	photo, err := Process(bytes.NewReader(createTestJPEG(3200, 1600)))
	if err != nil {
		t.Fatalf("Process large image: %v", err)
	}

	w, h := dimensions(t, photo.Full)
	if w != PhotoDimension || h != PhotoDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", PhotoDimension, PhotoDimension/2, w, h)
	}
	w, h = dimensions(t, photo.Thumbnail)
	if w != ThumbnailDimension || h != ThumbnailDimension/2 {
		t.Errorf("expected thumbnail %dx%d, got %dx%d", ThumbnailDimension, ThumbnailDimension/2, w, h)
	}
}

func TestProcessSmallImageNotUpscaled(t *testing.T) {
	photo, err := Process(bytes.NewReader(createTestJPEG(50, 50)))
	if err != nil {
		t.Fatalf("Process small image: %v", err)
	}
	if w, h := dimensions(t, photo.Thumbnail); w != 50 || h != 50 {
		t.Errorf("small image should not be resized: got %dx%d", w, h)
	}
}

func TestProcessInvalidFormat(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("not an image")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestProcessGIFRejected(t *testing.T) {
	_, err := Process(bytes.NewReader([]byte("GIF89a...")))
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported for GIF, got %v", err)
	}
}
