// Package speech reads text aloud through a local synthesis command.
//
// Playback is synchronous: Speak returns once the utterance has finished.
// The audio device is a process-wide resource acquired for exactly one
// utterance and released on return, whether playback succeeded, failed, or
// the context was cancelled. Speak is safe to call from any goroutine.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNoEngine is returned when no speech engine is installed.
var ErrNoEngine = errors.New("no speech engine found (install espeak-ng, or use say/powershell)")

// Speaker produces audible output for text.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Error reports a speech engine failure.
type Error struct {
	Engine string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("speech engine %s failed: %v", e.Engine, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// device is a one-slot semaphore over the local audio output, shared by all
// engines.
var device = make(chan struct{}, 1)

// acquire waits for the audio device and returns its release func. It gives
// up with ctx.Err() if ctx ends first.
func acquire(ctx context.Context) (func(), error) {
	select {
	case device <- struct{}{}:
		return func() { <-device }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Engine speaks through one local synthesis command.
type Engine struct {
	name  string
	path  string
	voice string
	rate  int
	run   runner
}

// Name returns the engine's command name, e.g. "espeak-ng".
func (e *Engine) Name() string {
	return e.name
}

// Speak blocks until the utterance finishes. Whitespace-only text is a no-op.
func (e *Engine) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	release, err := acquire(ctx)
	if err != nil {
		log.Debug().Err(err).Str("engine", e.name).Msg("Gave up waiting for audio device")
		return &Error{Engine: e.name, Err: err}
	}
	defer release()

	args := e.args()
	start := time.Now()
	log.Debug().
		Str("engine", e.name).
		Int("text_length", len(text)).
		Msg("Speaking text")

	if err := e.run(ctx, e.path, args, text); err != nil {
		log.Error().Err(err).Str("engine", e.name).Msg("Speech playback failed")
		return &Error{Engine: e.name, Err: err}
	}

	log.Debug().
		Str("engine", e.name).
		Dur("duration", time.Since(start)).
		Msg("Speech playback complete")
	return nil
}

// unavailable is a Speaker that always fails with the detection error.
type unavailable struct {
	err error
}

// Unavailable returns a Speaker that reports err on every call, so the other
// actions keep working on machines without a speech engine.
func Unavailable(err error) Speaker {
	if err == nil {
		err = ErrNoEngine
	}
	return unavailable{err: err}
}

func (u unavailable) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &Error{Engine: "none", Err: u.err}
}
