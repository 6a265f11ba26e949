package cli

import (
	"context"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/auth"
	"github.com/fpang/sight-assist/internal/config"
	"github.com/fpang/sight-assist/internal/ocr"
	"github.com/fpang/sight-assist/internal/ocr/tesseract"
	"github.com/fpang/sight-assist/internal/scene"
	"github.com/fpang/sight-assist/internal/speech"
	"github.com/rs/zerolog/log"
)

// Engines are the process-wide adapters every assistant shares.
type Engines struct {
	Describer scene.Describer
	OCR       ocr.Engine
	Speaker   speech.Speaker

	// Models is nil when no API key was found.
	Models     scene.ContentGenerator
	Model      string
	SpeechName string
}

// InitEngines builds the Gemini, Tesseract and speech adapters from cfg.
// A missing API key or speech engine is not fatal: the affected action
// reports the problem when it is triggered and the others keep working.
func InitEngines(ctx context.Context, cfg *config.Config) *Engines {
	e := &Engines{Model: cfg.Model}
	if !scene.IsKnownModel(cfg.Model) {
		log.Warn().Str("model", cfg.Model).Strs("known", scene.KnownModels).Msg("Unrecognized model name, passing it through")
	}

	apiKey, err := auth.GetAPIKey(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Scene description disabled")
		e.Describer = scene.Unavailable(nil)
	} else {
		client, err := scene.NewGeminiClient(ctx, apiKey)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Gemini client")
		}
		e.Models = client.Models
		e.Describer = scene.NewGemini(client.Models, cfg.Model)
		log.Info().Str("model", cfg.Model).Msg("Gemini client initialized")
	}

	var opts []tesseract.Option
	if cfg.OCR.TessdataPrefix != "" {
		opts = append(opts, tesseract.WithTessdataPrefix(cfg.OCR.TessdataPrefix))
	}
	e.OCR = tesseract.New(opts...)
	if !tesseract.Available() {
		log.Warn().Msg("tesseract binary not found on PATH; text extraction may fail")
	}

	engine, err := speech.New(cfg.Speech)
	if err != nil {
		log.Warn().Err(err).Msg("Text-to-speech disabled")
		e.Speaker = speech.Unavailable(err)
		e.SpeechName = "none"
	} else {
		e.Speaker = engine
		e.SpeechName = engine.Name()
	}

	return e
}

// NewAssistant returns an Idle assistant wired to the shared engines.
func (e *Engines) NewAssistant(opts ...assist.Option) *assist.Assistant {
	return assist.New(assist.Dependencies{
		Describer: e.Describer,
		OCR:       e.OCR,
		Speaker:   e.Speaker,
	}, opts...)
}

// Validate checks the API key with a minimal request, exiting on failure.
func (e *Engines) Validate(ctx context.Context) {
	if e.Models == nil {
		HandleValidationError(&scene.RemoteError{Kind: scene.KindNoKey, Message: "no Gemini API key configured"})
		return
	}
	if err := auth.ValidateAPIKey(ctx, e.Models, e.Model); err != nil {
		HandleValidationError(err)
	}
	log.Info().Msg("API key validation complete - ready for operations")
}
