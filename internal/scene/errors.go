package scene

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// ErrorKind categorizes remote service failures.
type ErrorKind int

const (
	// KindUnknown is any failure that does not fit another kind.
	KindUnknown ErrorKind = iota
	// KindNoKey indicates no API key was configured.
	KindNoKey
	// KindInvalidKey indicates the API key is invalid, expired, or lacks permissions.
	KindInvalidKey
	// KindQuotaExceeded indicates the quota or rate limit was hit.
	KindQuotaExceeded
	// KindNetwork indicates a connectivity problem.
	KindNetwork
	// KindServer indicates a 5xx from the model service.
	KindServer
	// KindEmptyResponse indicates the model returned no candidates or no text.
	KindEmptyResponse
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoKey:
		return "no_key"
	case KindInvalidKey:
		return "invalid_key"
	case KindQuotaExceeded:
		return "quota"
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindEmptyResponse:
		return "empty_response"
	default:
		return "unknown"
	}
}

// RemoteError is any failure of the remote multimodal model call. Error()
// keeps the underlying message verbatim; nothing is redacted.
type RemoteError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Classify wraps err in a *RemoteError with a kind derived from the genai
// API error code or, failing that, the error text.
func Classify(err error) *RemoteError {
	if err == nil {
		return nil
	}

	var remoteErr *RemoteError
	if errors.As(err, &remoteErr) {
		return remoteErr
	}

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(apiErr)
	}
	var apiErrVal genai.APIError
	if errors.As(err, &apiErrVal) {
		return classifyAPIError(&apiErrVal)
	}

	errLower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errLower, "api key not valid") ||
		strings.Contains(errLower, "invalid api key") ||
		strings.Contains(errLower, "api_key_invalid") ||
		strings.Contains(errLower, "permission denied"):
		return &RemoteError{Kind: KindInvalidKey, Message: "API key is invalid or has been revoked", Err: err}

	case strings.Contains(errLower, "quota") ||
		strings.Contains(errLower, "resource exhausted") ||
		strings.Contains(errLower, "rate limit"):
		return &RemoteError{Kind: KindQuotaExceeded, Message: "API quota exceeded or rate limited", Err: err}

	case strings.Contains(errLower, "connection") ||
		strings.Contains(errLower, "network") ||
		strings.Contains(errLower, "timeout") ||
		strings.Contains(errLower, "dial") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "unreachable"):
		return &RemoteError{Kind: KindNetwork, Message: "Network error - check your internet connection", Err: err}

	default:
		return &RemoteError{Kind: KindUnknown, Message: "Scene description request failed", Err: err}
	}
}

// classifyAPIError categorizes a Google API error.
func classifyAPIError(err *genai.APIError) *RemoteError {
	switch err.Code {
	case 400:
		log.Debug().Int("code", err.Code).Msg("Bad request from Gemini API")
		return &RemoteError{Kind: KindInvalidKey, Message: "Bad request - API key may be malformed", Err: err}

	case 401, 403:
		log.Debug().Int("code", err.Code).Msg("Authentication failed")
		return &RemoteError{Kind: KindInvalidKey, Message: "API key is invalid, expired, or lacks permissions", Err: err}

	case 429:
		log.Debug().Int("code", err.Code).Msg("Rate limit exceeded")
		return &RemoteError{Kind: KindQuotaExceeded, Message: "API rate limit exceeded - try again later", Err: err}

	case 500, 502, 503, 504:
		log.Debug().Int("code", err.Code).Msg("Gemini API server error")
		return &RemoteError{Kind: KindServer, Message: "Gemini API server error - try again later", Err: err}

	default:
		log.Debug().Int("code", err.Code).Str("message", err.Message).Msg("Google API error")
		return &RemoteError{Kind: KindUnknown, Message: "Gemini API error", Err: err}
	}
}
