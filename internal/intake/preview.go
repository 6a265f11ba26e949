package intake

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/draw"
)

// DefaultPreviewMaxDimension bounds the longest edge of web UI previews.
const DefaultPreviewMaxDimension = 800

// Preview renders a downscaled PNG of the uploaded image. Images already
// within maxDimension are re-encoded at their original size.
func Preview(img *UploadedImage, maxDimension int) ([]byte, error) {
	if img == nil || img.Bitmap == nil {
		return nil, ErrNoFile
	}
	if maxDimension <= 0 {
		maxDimension = DefaultPreviewMaxDimension
	}

	width, height := scaledSize(img.Width(), img.Height(), maxDimension)

	var out image.Image = img.Bitmap
	if width != img.Width() || height != img.Height() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img.Bitmap, img.Bitmap.Bounds(), draw.Over, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}

	log.Debug().
		Str("name", img.Name).
		Int("width", width).
		Int("height", height).
		Int("output_size", buf.Len()).
		Msg("Preview generated")

	return buf.Bytes(), nil
}

// scaledSize fits (w, h) within maxDimension preserving aspect ratio.
func scaledSize(w, h, maxDimension int) (int, int) {
	if w <= maxDimension && h <= maxDimension {
		return w, h
	}
	if w >= h {
		nh := h * maxDimension / w
		if nh < 1 {
			nh = 1
		}
		return maxDimension, nh
	}
	nw := w * maxDimension / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDimension
}
