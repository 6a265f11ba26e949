package auth

import (
	"context"
	"time"

	"github.com/fpang/sight-assist/internal/metrics"
	"github.com/fpang/sight-assist/internal/scene"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ValidateAPIKey verifies that the API key works by making a minimal text
// request. It returns nil if the key is valid, or a *scene.RemoteError whose
// Kind indicates the nature of the failure.
func ValidateAPIKey(ctx context.Context, models scene.ContentGenerator, model string) error {
	log.Debug().Str("model", model).Msg("Validating API key with Gemini API")

	start := time.Now()
	resp, err := models.GenerateContent(ctx, model, genai.Text("hi"), nil)
	elapsed := time.Since(start)

	result := "success"
	var valErr *scene.RemoteError
	switch {
	case err != nil:
		valErr = scene.Classify(err)
		result = valErr.Kind.String()
	case resp == nil || len(resp.Candidates) == 0:
		log.Warn().Msg("API key validation returned empty response")
		valErr = &scene.RemoteError{Kind: scene.KindEmptyResponse, Message: "API returned empty response"}
		result = valErr.Kind.String()
	}

	metrics.New(metrics.Namespace).
		Dimension("Result", result).
		Metric("ApiKeyValidationMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ApiKeyValidationResult").
		Flush()

	log.Debug().
		Str("result", result).
		Dur("duration", elapsed).
		Msg("API key validation result")

	if valErr != nil {
		return valErr
	}

	log.Info().Msg("API key validated successfully")
	return nil
}
