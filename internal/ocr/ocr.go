// Package ocr extracts visible text from a decoded bitmap through a local
// recognition engine. The engine's default pipeline is used as-is: no
// language hints, no region cropping, no confidence filtering.
package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine is a local text-recognition engine.
type Engine interface {
	// Name identifies the engine in logs, e.g. "tesseract".
	Name() string

	// Recognize returns the raw text found in the bitmap. An image without
	// text yields an empty string and a nil error.
	Recognize(ctx context.Context, bitmap image.Image) (string, error)
}

// EngineError reports that the OCR engine was unavailable or failed.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr engine %s failed: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// ExtractText runs the engine once and returns the trimmed text. Empty text
// is a valid result. Failures are returned as *EngineError and never retried.
func ExtractText(ctx context.Context, engine Engine, bitmap image.Image) (string, error) {
	if bitmap == nil {
		return "", &EngineError{Engine: engine.Name(), Err: fmt.Errorf("no bitmap")}
	}

	start := time.Now()
	text, err := engine.Recognize(ctx, bitmap)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("engine", engine.Name()).Dur("duration", elapsed).Msg("OCR failed")
		return "", &EngineError{Engine: engine.Name(), Err: err}
	}

	text = strings.TrimSpace(text)

	log.Debug().
		Str("engine", engine.Name()).
		Int("text_length", len(text)).
		Dur("duration", elapsed).
		Msg("OCR complete")

	return text, nil
}
