// Package scene produces natural-language scene descriptions through a
// remote multimodal model. One synchronous call per request; failures are
// returned as *RemoteError and never retried.
package scene

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ImagePayload is the raw uploaded image as sent to the model.
type ImagePayload struct {
	MIMEType string
	Data     []byte
}

// Describer generates a scene description for an image.
type Describer interface {
	DescribeScene(ctx context.Context, prompt string, payload ImagePayload) (string, error)
}

// ContentGenerator is the slice of the genai client used here. *genai.Models
// satisfies it; tests substitute a fake.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewGeminiClient creates a genai client for the Gemini API backend.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, &RemoteError{Kind: KindNoKey, Message: "no Gemini API key configured"}
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// Gemini describes scenes with a Gemini model.
type Gemini struct {
	models ContentGenerator
	model  string
}

// NewGemini wraps a content generator (normally client.Models) and a model ID.
func NewGemini(models ContentGenerator, model string) *Gemini {
	if model == "" {
		model = DefaultModelName
	}
	return &Gemini{models: models, model: model}
}

// Model returns the model ID requests are sent to.
func (g *Gemini) Model() string {
	return g.model
}

// DescribeScene sends the prompt and the inline image in one user turn and
// returns the generated text verbatim.
func (g *Gemini) DescribeScene(ctx context.Context, prompt string, payload ImagePayload) (string, error) {
	log.Info().
		Str("model", g.model).
		Int("image_bytes", len(payload.Data)).
		Str("image_mime", payload.MIMEType).
		Msg("Sending image to Gemini for scene description")

	parts := []*genai.Part{
		{Text: prompt},
		{
			InlineData: &genai.Blob{
				MIMEType: payload.MIMEType,
				Data:     payload.Data,
			},
		},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	callStart := time.Now()
	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	duration := time.Since(callStart)
	if err != nil {
		remoteErr := Classify(err)
		log.Error().
			Err(err).
			Str("kind", remoteErr.Kind.String()).
			Dur("duration", duration).
			Msg("Failed to generate scene description")
		return "", remoteErr
	}

	if resp == nil || len(resp.Candidates) == 0 {
		log.Warn().Dur("duration", duration).Msg("Received empty response from Gemini")
		return "", &RemoteError{Kind: KindEmptyResponse, Message: "received empty response from Gemini API"}
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := ""
		if c := resp.Candidates[0]; c != nil {
			reason = string(c.FinishReason)
		}
		log.Warn().Str("finish_reason", reason).Msg("Gemini response contained no text")
		return "", &RemoteError{
			Kind:    KindEmptyResponse,
			Message: fmt.Sprintf("Gemini response contained no text (finish reason %q)", reason),
		}
	}

	log.Debug().
		Int("response_length", len(text)).
		Dur("duration", duration).
		Msg("Gemini API response received for scene description")

	return text, nil
}

// unavailable is a Describer that fails every call with a fixed error.
type unavailable struct {
	err *RemoteError
}

// Unavailable returns a Describer that reports err on every call. It stands
// in for Gemini when no credential is configured, so OCR and speech still work.
func Unavailable(err error) Describer {
	if err == nil {
		return unavailable{err: &RemoteError{Kind: KindNoKey, Message: "no Gemini API key configured"}}
	}
	return unavailable{err: Classify(err)}
}

func (u unavailable) DescribeScene(ctx context.Context, prompt string, payload ImagePayload) (string, error) {
	return "", u.err
}
