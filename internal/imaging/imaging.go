package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

const (
	// PhotoDimension bounds the stored item photo.
	PhotoDimension = 1600
	// ThumbnailDimension bounds the list-view thumbnail.
	ThumbnailDimension = 320
	// MaxUploadBytes caps how much of an upload is read.
	MaxUploadBytes = 10 << 20

	photoQuality     = 85
	thumbnailQuality = 75
)

// ErrUnsupported is returned for uploads that are not a JPEG or PNG image.
var ErrUnsupported = errors.New("unsupported image")

var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Photo is an item photo re-encoded as JPEG, with its thumbnail.
type Photo struct {
	Full      []byte
	Thumbnail []byte
}

// MIME is the content type of both encodings.
const MIME = "image/jpeg"

// Process sniffs the upload, rejects anything but JPEG and PNG, and returns
// a downscaled photo plus a thumbnail. Images are never upscaled.
func Process(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image larger than %d bytes: %w", MaxUploadBytes, ErrUnsupported)
	}

	// Client headers are not trusted.
	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("%s (only JPEG and PNG accepted): %w", detected, ErrUnsupported)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %v: %w", err, ErrUnsupported)
	}

	full, err := encode(downscale(img, PhotoDimension), photoQuality)
	if err != nil {
		return nil, err
	}
	thumb, err := encode(downscale(img, ThumbnailDimension), thumbnailQuality)
	if err != nil {
		return nil, err
	}
	return &Photo{Full: full, Thumbnail: thumb}, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale resizes the image so neither dimension exceeds maxDim,
// preserving the aspect ratio.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	newW = max(newW, 1)
	newH = max(newH, 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
