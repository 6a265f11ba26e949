// Package tesseract implements ocr.Engine on top of libtesseract through
// gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	"github.com/otiai10/gosseract/v2"
)

// Engine recognizes text with a fresh gosseract client per call.
type Engine struct {
	clientFactory  func() *gosseract.Client
	tessdataPrefix string
}

// Option configures an Engine.
type Option func(*Engine)

// WithTessdataPrefix points Tesseract at a non-default tessdata directory.
func WithTessdataPrefix(prefix string) Option {
	return func(e *Engine) { e.tessdataPrefix = prefix }
}

// New constructs a Tesseract-backed OCR engine.
func New(opts ...Option) *Engine {
	e := &Engine{clientFactory: gosseract.NewClient}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize encodes the bitmap as PNG and runs the default recognition pipeline.
func (e *Engine) Recognize(ctx context.Context, bitmap image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, bitmap); err != nil {
		return "", fmt.Errorf("encode bitmap: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if e.tessdataPrefix != "" {
		if err := c.SetTessdataPrefix(e.tessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// Available reports whether the tesseract binary is on PATH. It is used for
// startup diagnostics only; Recognize surfaces the real failure.
func Available() bool {
	_, err := exec.LookPath("tesseract")
	return err == nil
}
