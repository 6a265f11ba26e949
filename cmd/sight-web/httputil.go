package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/intake"
	"github.com/fpang/sight-assist/internal/scene"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func httpError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// assistError renders an Upload or Trigger failure with its user notice.
func assistError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), map[string]string{
		"error":  err.Error(),
		"notice": assist.Notice(err),
	})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		decodeErr *intake.DecodeError
		remoteErr *scene.RemoteError
	)
	switch {
	case errors.Is(err, intake.ErrNoFile), errors.As(err, &decodeErr):
		return http.StatusBadRequest
	case errors.Is(err, assist.ErrBusy):
		return http.StatusConflict
	case errors.As(err, &remoteErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
