// Package intake turns an uploaded file into the two representations the
// adapters need: a decoded bitmap for local OCR and the original bytes
// tagged with a MIME type for the remote model.
//
// Only JPEG and PNG are accepted. Beyond what decoding enforces, no
// dimension, format, or size validation is performed here.
package intake

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"
)

// ErrNoFile is returned when an action or Prepare is attempted without an
// uploaded file.
var ErrNoFile = errors.New("no file uploaded")

// DecodeError reports that the uploaded bytes could not be decoded as an image.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("failed to decode image %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// File is an uploaded file as received from a surface (web form, CLI path,
// MCP tool argument). MIMEType is the declared type and may be empty.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// UploadedImage is a prepared upload. Data and Bitmap always represent the
// same content; the struct is read-only after Prepare returns.
type UploadedImage struct {
	Name     string
	MIMEType string
	Data     []byte
	Bitmap   image.Image
	// Format is the decoder that accepted the bytes ("jpeg" or "png").
	Format string
	// Metadata is best-effort EXIF; nil when unavailable.
	Metadata *Metadata
}

// Width returns the bitmap width in pixels.
func (u *UploadedImage) Width() int {
	return u.Bitmap.Bounds().Dx()
}

// Height returns the bitmap height in pixels.
func (u *UploadedImage) Height() int {
	return u.Bitmap.Bounds().Dy()
}

// Prepare decodes the file and retains the raw bytes with a resolved MIME type.
// A supported declared type is kept even when the bytes decode as the other
// format; Format records what the decoder actually saw.
func Prepare(file *File) (*UploadedImage, error) {
	if file == nil || len(file.Data) == 0 {
		return nil, ErrNoFile
	}

	mimeType := ResolveMIMEType(file.Name, file.MIMEType, file.Data)

	bitmap, format, err := image.Decode(bytes.NewReader(file.Data))
	if err != nil {
		log.Debug().Err(err).Str("name", file.Name).Msg("Image decode failed")
		return nil, &DecodeError{Name: file.Name, Err: err}
	}

	img := &UploadedImage{
		Name:     file.Name,
		MIMEType: mimeType,
		Data:     file.Data,
		Bitmap:   bitmap,
		Format:   format,
	}

	meta, err := ExtractMetadata(file.Data)
	if err != nil {
		log.Debug().Err(err).Str("name", file.Name).Msg("No EXIF metadata, continuing without it")
	} else {
		img.Metadata = meta
	}

	log.Info().
		Str("name", file.Name).
		Str("mime_type", mimeType).
		Int("size_bytes", len(file.Data)).
		Int("width", img.Width()).
		Int("height", img.Height()).
		Msg("Image prepared")

	return img, nil
}
