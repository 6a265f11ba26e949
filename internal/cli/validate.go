package cli

import (
	"errors"
	"os"

	"github.com/fpang/sight-assist/internal/scene"
	"github.com/rs/zerolog/log"
)

// HandleValidationError reports a failed API key check and exits.
func HandleValidationError(err error) {
	var remoteErr *scene.RemoteError
	if errors.As(err, &remoteErr) {
		switch remoteErr.Kind {
		case scene.KindNoKey:
			log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY or apiKeyFile in sight-assist.yaml")
		case scene.KindInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case scene.KindNetwork:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case scene.KindQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during API key validation")
	}
	os.Exit(1)
}
