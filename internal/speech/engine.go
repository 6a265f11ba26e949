package speech

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/fpang/sight-assist/internal/config"
	"github.com/rs/zerolog/log"
)

// runner executes a synthesis command with text on stdin and waits for it.
type runner func(ctx context.Context, path string, args []string, stdin string) error

func execRunner(ctx context.Context, path string, args []string, stdin string) error {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = strings.NewReader(stdin)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// lookPath is exec.LookPath, replaceable in tests.
var lookPath = exec.LookPath

// candidates lists engine commands to look for, in preference order.
func candidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"say", "espeak-ng", "espeak"}
	case "windows":
		return []string{"powershell", "espeak-ng", "espeak"}
	default:
		return []string{"espeak-ng", "espeak"}
	}
}

// New resolves the configured engine, or auto-detects one when cfg.Engine is
// empty. It fails with ErrNoEngine when nothing usable is installed.
func New(cfg config.SpeechConfig) (*Engine, error) {
	names := candidates()
	if cfg.Engine != "" {
		names = []string{cfg.Engine}
	}

	for _, name := range names {
		path, err := lookPath(name)
		if err != nil {
			log.Debug().Str("engine", name).Msg("Speech engine not found")
			continue
		}
		e := &Engine{
			name:  engineName(name),
			path:  path,
			voice: cfg.Voice,
			rate:  cfg.Rate,
			run:   execRunner,
		}
		if !e.supported() {
			return nil, fmt.Errorf("unsupported speech engine %q (use espeak-ng, espeak, say, or powershell)", name)
		}
		log.Debug().Str("engine", e.name).Str("path", path).Msg("Speech engine selected")
		return e, nil
	}

	if cfg.Engine != "" {
		return nil, fmt.Errorf("speech engine %q not found: %w", cfg.Engine, ErrNoEngine)
	}
	return nil, ErrNoEngine
}

// engineName normalises a command or path to its base name without extension.
func engineName(cmd string) string {
	base := filepath.Base(cmd)
	return strings.TrimSuffix(strings.ToLower(base), ".exe")
}

func (e *Engine) supported() bool {
	switch e.name {
	case "espeak-ng", "espeak", "say", "powershell", "pwsh":
		return true
	}
	return false
}

// args builds the command line; the text itself always travels on stdin.
func (e *Engine) args() []string {
	switch e.name {
	case "espeak-ng", "espeak":
		var args []string
		if e.voice != "" {
			args = append(args, "-v", e.voice)
		}
		if e.rate > 0 {
			args = append(args, "-s", strconv.Itoa(e.rate))
		}
		return append(args, "--stdin")

	case "say":
		var args []string
		if e.voice != "" {
			args = append(args, "-v", e.voice)
		}
		if e.rate > 0 {
			args = append(args, "-r", strconv.Itoa(e.rate))
		}
		return append(args, "-f", "-")

	case "powershell", "pwsh":
		var script strings.Builder
		script.WriteString("Add-Type -AssemblyName System.Speech; ")
		script.WriteString("$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ")
		if e.voice != "" {
			script.WriteString("$s.SelectVoice('" + strings.ReplaceAll(e.voice, "'", "''") + "'); ")
		}
		if e.rate > 0 {
			script.WriteString("$s.Rate = " + strconv.Itoa(sapiRate(e.rate)) + "; ")
		}
		script.WriteString("$s.Speak([Console]::In.ReadToEnd())")
		return []string{"-NoProfile", "-NonInteractive", "-Command", script.String()}
	}
	return nil
}

// sapiRate maps words per minute onto System.Speech's -10..10 scale,
// treating 180 wpm as the engine's default of 0.
func sapiRate(wpm int) int {
	r := (wpm - 180) / 20
	if r < -10 {
		return -10
	}
	if r > 10 {
		return 10
	}
	return r
}
