package assist

import (
	"errors"
	"time"

	"github.com/fpang/sight-assist/internal/intake"
	"github.com/fpang/sight-assist/internal/ocr"
	"github.com/fpang/sight-assist/internal/scene"
	"github.com/fpang/sight-assist/internal/speech"
)

// Result is the outcome of one successful action.
type Result struct {
	Action Action
	// Description is set by ActionDescribeScene.
	Description string
	// Text is the OCR output for ActionExtractText and ActionSpeakText.
	// It may be empty.
	Text string
	// Spoken reports that the text was read aloud to completion.
	Spoken bool
	// Warning is ErrEmptyText when a speak action found nothing to read.
	Warning  error
	Duration time.Duration
}

// Message is the single piece of output a surface should render.
func (r *Result) Message() string {
	switch r.Action {
	case ActionDescribeScene:
		return r.Description
	case ActionExtractText:
		if r.Text == "" {
			return "No text found in the image."
		}
		return r.Text
	case ActionSpeakText:
		if r.Warning != nil {
			return Notice(r.Warning)
		}
		return "Text-to-Speech conversion completed."
	}
	return ""
}

// Outcome classifies a Trigger result for logs and metrics.
func Outcome(res *Result, err error) string {
	var (
		decodeErr *intake.DecodeError
		remoteErr *scene.RemoteError
		ocrErr    *ocr.EngineError
		speechErr *speech.Error
	)
	switch {
	case err == nil && res != nil && res.Warning != nil:
		return "empty_text"
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, intake.ErrNoFile):
		return "no_file"
	case errors.As(err, &decodeErr):
		return "decode_error"
	case errors.As(err, &remoteErr):
		return "remote_error"
	case errors.As(err, &ocrErr):
		return "ocr_error"
	case errors.As(err, &speechErr):
		return "speech_error"
	default:
		return "error"
	}
}

// Notice turns an error from Upload or Trigger into the text shown to the
// user. Remote service errors are passed through verbatim.
func Notice(err error) string {
	if err == nil {
		return ""
	}

	var (
		decodeErr *intake.DecodeError
		remoteErr *scene.RemoteError
		ocrErr    *ocr.EngineError
		speechErr *speech.Error
	)
	switch {
	case errors.Is(err, intake.ErrNoFile):
		return "Please upload an image first."
	case errors.Is(err, ErrBusy):
		return "Still working on the previous request. Please wait for it to finish."
	case errors.Is(err, ErrEmptyText):
		return "No text found to convert."
	case errors.As(err, &decodeErr):
		return "The file could not be read as an image. Please upload a JPG or PNG."
	case errors.As(err, &remoteErr):
		return remoteErr.Error()
	case errors.As(err, &ocrErr):
		return "Text extraction failed: " + ocrErr.Err.Error()
	case errors.As(err, &speechErr):
		return "Text-to-Speech failed: " + speechErr.Err.Error()
	default:
		return err.Error()
	}
}
