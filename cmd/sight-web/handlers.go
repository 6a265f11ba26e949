package main

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fpang/sight-assist/internal/assist"
	"github.com/fpang/sight-assist/internal/cli"
	"github.com/fpang/sight-assist/internal/intake"
	"github.com/fpang/sight-assist/internal/session"
	"github.com/rs/zerolog/log"
)

const (
	sessionCookie = "sight_session"
	// maxUploadBytes bounds the multipart form, including the image.
	maxUploadBytes = 10 << 20
)

// app holds the handlers' shared state.
type app struct {
	store   *session.Store
	engines *cli.Engines
	// pick opens the native file dialog; replaced in tests.
	pick func() (string, error)
}

func (a *app) routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/image", a.handleImage)
	mux.HandleFunc("/api/image/preview", a.handlePreview)
	mux.HandleFunc("/api/pick", a.handlePick)
	mux.HandleFunc("/api/actions/", a.handleAction)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/healthz", handleHealth)
}

// session returns the caller's assistant, issuing a cookie for new sessions.
func (a *app) session(w http.ResponseWriter, r *http.Request) (string, *assist.Assistant) {
	var id string
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	newID, asst := a.store.Get(id)
	if newID != id {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    newID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
	}
	return newID, asst
}

type imageInfo struct {
	Name     string           `json:"name"`
	MIMEType string           `json:"mimeType"`
	Width    int              `json:"width"`
	Height   int              `json:"height"`
	Size     int              `json:"size"`
	Metadata *intake.Metadata `json:"metadata,omitempty"`
	Summary  string           `json:"summary,omitempty"`
}

func newImageInfo(img *intake.UploadedImage) *imageInfo {
	if img == nil {
		return nil
	}
	info := &imageInfo{
		Name:     img.Name,
		MIMEType: img.MIMEType,
		Width:    img.Width(),
		Height:   img.Height(),
		Size:     len(img.Data),
		Metadata: img.Metadata,
	}
	if img.Metadata != nil {
		info.Summary = img.Metadata.Summary()
	}
	return info
}

// POST /api/image (multipart field "image"), DELETE /api/image
func (a *app) handleImage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		a.uploadImage(w, r)
	case http.MethodDelete:
		_, asst := a.session(w, r)
		asst.Clear()
		respondJSON(w, http.StatusOK, map[string]string{"state": asst.State().String()})
	default:
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (a *app) uploadImage(w http.ResponseWriter, r *http.Request) {
	_, asst := a.session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "image exceeds 10 MB")
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			httpError(w, http.StatusBadRequest, "invalid upload")
			return
		}
	}

	file := &intake.File{}
	part, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer part.Close()
		data, err := io.ReadAll(part)
		if err != nil {
			httpError(w, http.StatusBadRequest, "failed to read upload")
			return
		}
		file.Name = header.Filename
		file.MIMEType = header.Header.Get("Content-Type")
		file.Data = data
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		file = nil
	default:
		httpError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	img, err := asst.Upload(file)
	if err != nil {
		assistError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state": asst.State().String(),
		"image": newImageInfo(img),
	})
}

// GET /api/image/preview
func (a *app) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	_, asst := a.session(w, r)

	img := asst.Image()
	if img == nil {
		httpError(w, http.StatusNotFound, "no image uploaded")
		return
	}
	data, err := intake.Preview(img, intake.DefaultPreviewMaxDimension)
	if err != nil {
		log.Warn().Err(err).Str("file", img.Name).Msg("Failed to generate preview")
		httpError(w, http.StatusInternalServerError, "failed to generate preview")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

// POST /api/pick
// Opens a native OS file picker and loads the chosen image into the session.
func (a *app) handlePick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	_, asst := a.session(w, r)

	path, err := a.pick()
	if err != nil {
		if errors.Is(err, cli.ErrCanceled) {
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"state":    asst.State().String(),
				"canceled": true,
			})
			return
		}
		log.Error().Err(err).Msg("File picker failed")
		httpError(w, http.StatusInternalServerError, "file picker failed")
		return
	}

	file, err := intake.LoadFile(path)
	if err != nil {
		httpError(w, http.StatusBadRequest, err.Error())
		return
	}
	img, err := asst.Upload(file)
	if err != nil {
		assistError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":    asst.State().String(),
		"image":    newImageInfo(img),
		"canceled": false,
	})
}

type actionResponse struct {
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
	Text        string `json:"text"`
	Spoken      bool   `json:"spoken"`
	Warning     string `json:"warning,omitempty"`
	Message     string `json:"message"`
	DurationMs  int64  `json:"durationMs"`
}

// POST /api/actions/{describe|extract|speak}
func (a *app) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	action, err := assist.ParseAction(strings.TrimPrefix(r.URL.Path, "/api/actions/"))
	if err != nil {
		httpError(w, http.StatusNotFound, err.Error())
		return
	}
	_, asst := a.session(w, r)

	res, err := asst.Trigger(r.Context(), action)
	if err != nil {
		assistError(w, err)
		return
	}

	resp := actionResponse{
		Action:      action.String(),
		Description: res.Description,
		Text:        res.Text,
		Spoken:      res.Spoken,
		Message:     res.Message(),
		DurationMs:  res.Duration.Milliseconds(),
	}
	if res.Warning != nil {
		resp.Warning = assist.Notice(res.Warning)
	}
	respondJSON(w, http.StatusOK, resp)
}

// GET /api/status
func (a *app) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	_, asst := a.session(w, r)

	actions := make([]map[string]string, 0, len(assist.Actions))
	for _, act := range assist.Actions {
		actions = append(actions, map[string]string{"name": act.String(), "label": act.Label()})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"state":    asst.State().String(),
		"image":    newImageInfo(asst.Image()),
		"actions":  actions,
		"model":    a.engines.Model,
		"describe": a.engines.Models != nil,
		"ocr":      a.engines.OCR.Name(),
		"speech":   a.engines.SpeechName,
	})
}

// GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
