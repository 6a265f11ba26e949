// Package assist sequences the three user actions over one uploaded image.
//
// An Assistant starts Idle. A successful Upload makes it Ready; Trigger moves
// it to Processing for the duration of a single action and back to Ready
// afterwards, whatever the outcome. Only one action runs at a time: a Trigger
// or Upload that arrives while another action is in flight fails with
// ErrBusy. The extracted text is never cached, so Speak always runs OCR again.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fpang/sight-assist/internal/assets"
	"github.com/fpang/sight-assist/internal/intake"
	"github.com/fpang/sight-assist/internal/metrics"
	"github.com/fpang/sight-assist/internal/ocr"
	"github.com/fpang/sight-assist/internal/scene"
	"github.com/fpang/sight-assist/internal/speech"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrBusy rejects a request that overlaps an action still in flight.
	ErrBusy = errors.New("another action is still running")

	// ErrEmptyText is the non-fatal warning for a speak action on an image
	// without readable text. It is reported in Result.Warning.
	ErrEmptyText = errors.New("no text found to convert")
)

// Dependencies are the adapters an Assistant drives. Describer, OCR and
// Speaker are required; an empty Prompt falls back to assets.ScenePrompt.
type Dependencies struct {
	Describer scene.Describer
	OCR       ocr.Engine
	Speaker   speech.Speaker
	Prompt    string
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithSessionID tags log lines and metric records with the owning session.
func WithSessionID(id string) Option {
	return func(a *Assistant) {
		a.sessionID = id
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Assistant) {
		a.now = now
	}
}

// WithPreparer replaces intake.Prepare, for tests.
func WithPreparer(prepare func(*intake.File) (*intake.UploadedImage, error)) Option {
	return func(a *Assistant) {
		a.prepare = prepare
	}
}

// Assistant holds one user's current image and runs actions against it.
// It is safe for concurrent use.
type Assistant struct {
	deps      Dependencies
	sessionID string
	now       func() time.Time
	prepare   func(*intake.File) (*intake.UploadedImage, error)

	mu         sync.Mutex
	image      *intake.UploadedImage
	busy       bool
	lastActive time.Time
}

// New returns an Idle assistant wired to deps.
func New(deps Dependencies, opts ...Option) *Assistant {
	if deps.Prompt == "" {
		deps.Prompt = assets.ScenePrompt
	}
	a := &Assistant{deps: deps, now: time.Now, prepare: intake.Prepare}
	for _, opt := range opts {
		opt(a)
	}
	a.lastActive = a.now()
	return a
}

// State reports Idle, Ready or Processing.
func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked()
}

func (a *Assistant) stateLocked() State {
	switch {
	case a.busy:
		return StateProcessing
	case a.image != nil:
		return StateReady
	default:
		return StateIdle
	}
}

// Image returns the current upload, or nil when Idle.
func (a *Assistant) Image() *intake.UploadedImage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.image
}

// LastActive is the time of the most recent upload, clear, or trigger.
func (a *Assistant) LastActive() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastActive
}

// Upload prepares file and makes it the current image. On failure the
// previous image is discarded and the assistant returns to Idle. Decoding
// runs without holding the lock, so State and LastActive stay responsive
// while a large image is being prepared.
func (a *Assistant) Upload(file *intake.File) (*intake.UploadedImage, error) {
	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		return nil, ErrBusy
	}
	a.lastActive = a.now()
	a.mu.Unlock()

	img, err := a.prepare(file)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		return nil, ErrBusy
	}
	a.lastActive = a.now()
	if err != nil {
		a.image = nil
		a.logger().Warn().Err(err).Msg("Upload rejected")
		return nil, err
	}
	a.image = img

	a.logger().Info().
		Str("file", img.Name).
		Str("mime_type", img.MIMEType).
		Int("width", img.Width()).
		Int("height", img.Height()).
		Int("size", len(img.Data)).
		Msg("Image uploaded")
	return img, nil
}

// Clear discards the current image. An action already in flight keeps the
// image it started with and finishes normally.
func (a *Assistant) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.image = nil
	a.lastActive = a.now()
	a.logger().Debug().Msg("Image cleared")
}

// Trigger runs one action against the current image and blocks until it
// completes. Failures are returned to the caller and leave the assistant
// Ready; ErrEmptyText is never returned here, it is carried in the Result.
func (a *Assistant) Trigger(ctx context.Context, action Action) (*Result, error) {
	if !action.valid() {
		return nil, fmt.Errorf("unknown action %d", int(action))
	}

	a.mu.Lock()
	if a.busy {
		a.mu.Unlock()
		a.record(action, 0, nil, ErrBusy)
		return nil, ErrBusy
	}
	img := a.image
	if img == nil {
		a.mu.Unlock()
		a.record(action, 0, nil, intake.ErrNoFile)
		return nil, intake.ErrNoFile
	}
	a.busy = true
	a.lastActive = a.now()
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.busy = false
		a.lastActive = a.now()
		a.mu.Unlock()
	}()

	start := time.Now()
	res := &Result{Action: action}
	var err error
	switch action {
	case ActionDescribeScene:
		err = a.describe(ctx, img, res)
	case ActionExtractText:
		err = a.extract(ctx, img, res)
	case ActionSpeakText:
		err = a.speak(ctx, img, res)
	}
	res.Duration = time.Since(start)

	a.record(action, res.Duration, res, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (a *Assistant) describe(ctx context.Context, img *intake.UploadedImage, res *Result) error {
	payload := scene.ImagePayload{MIMEType: img.MIMEType, Data: img.Data}
	description, err := a.deps.Describer.DescribeScene(ctx, a.deps.Prompt, payload)
	if err != nil {
		return err
	}
	res.Description = description
	return nil
}

func (a *Assistant) extract(ctx context.Context, img *intake.UploadedImage, res *Result) error {
	text, err := ocr.ExtractText(ctx, a.deps.OCR, img.Bitmap)
	if err != nil {
		return err
	}
	res.Text = text
	return nil
}

func (a *Assistant) speak(ctx context.Context, img *intake.UploadedImage, res *Result) error {
	text, err := ocr.ExtractText(ctx, a.deps.OCR, img.Bitmap)
	if err != nil {
		return err
	}
	res.Text = text
	if strings.TrimSpace(text) == "" {
		res.Warning = ErrEmptyText
		return nil
	}
	if err := a.deps.Speaker.Speak(ctx, text); err != nil {
		return err
	}
	res.Spoken = true
	return nil
}

func (a *Assistant) logger() *zerolog.Logger {
	l := log.Logger
	if a.sessionID != "" {
		l = l.With().Str("sessionId", a.sessionID).Logger()
	}
	return &l
}

// record writes the per-action log line and metric record.
func (a *Assistant) record(action Action, elapsed time.Duration, res *Result, err error) {
	outcome := Outcome(res, err)

	var ev *zerolog.Event
	switch {
	case err != nil && (errors.Is(err, ErrBusy) || errors.Is(err, intake.ErrNoFile)):
		ev = a.logger().Warn().Err(err)
	case err != nil:
		ev = a.logger().Error().Err(err)
	case res != nil && res.Warning != nil:
		ev = a.logger().Warn().Str("warning", res.Warning.Error())
	default:
		ev = a.logger().Info()
	}
	if res != nil {
		ev = ev.Int("text_length", len(res.Text)).Bool("spoken", res.Spoken)
	}
	ev.Str("action", action.String()).
		Str("outcome", outcome).
		Dur("duration", elapsed).
		Msg("Action finished")

	rec := metrics.New(metrics.Namespace).
		Dimension("Action", action.String()).
		Metric("ActionMs", float64(elapsed.Milliseconds()), metrics.UnitMilliseconds).
		Count("ActionResult").
		Property("outcome", outcome)
	if a.sessionID != "" {
		rec.Property("sessionId", a.sessionID)
	}
	rec.Flush()
}
