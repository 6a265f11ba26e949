package speech

import (
	"context"
	"errors"
	"os/exec"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fpang/sight-assist/internal/config"
)

type recordedRun struct {
	path  string
	args  []string
	stdin string
}

type recorder struct {
	mu   sync.Mutex
	runs []recordedRun
	err  error
}

func (r *recorder) run(ctx context.Context, path string, args []string, stdin string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, recordedRun{path: path, args: args, stdin: stdin})
	return r.err
}

func newTestEngine(name string, rec *recorder) *Engine {
	return &Engine{name: name, path: "/usr/bin/" + name, run: rec.run}
}

func TestSpeakPassesTextOnStdin(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine("espeak-ng", rec)

	if err := e.Speak(context.Background(), "  HELLO WORLD \n"); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if len(rec.runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(rec.runs))
	}
	got := rec.runs[0]
	if got.stdin != "HELLO WORLD" {
		t.Errorf("stdin = %q, want %q", got.stdin, "HELLO WORLD")
	}
	if got.path != "/usr/bin/espeak-ng" {
		t.Errorf("path = %q", got.path)
	}
}

func TestSpeakWhitespaceIsNoop(t *testing.T) {
	rec := &recorder{}
	e := newTestEngine("espeak-ng", rec)

	for _, text := range []string{"", "   ", "\n\t\f"} {
		if err := e.Speak(context.Background(), text); err != nil {
			t.Errorf("Speak(%q) error = %v", text, err)
		}
	}
	if len(rec.runs) != 0 {
		t.Errorf("runs = %d, want 0", len(rec.runs))
	}
}

func TestSpeakFailure(t *testing.T) {
	cause := errors.New("exit status 1: audio device busy")
	rec := &recorder{err: cause}
	e := newTestEngine("say", rec)

	err := e.Speak(context.Background(), "hi")

	var speechErr *Error
	if !errors.As(err, &speechErr) {
		t.Fatalf("Speak() error = %v, want *Error", err)
	}
	if speechErr.Engine != "say" {
		t.Errorf("Engine = %q, want say", speechErr.Engine)
	}
	if !errors.Is(err, cause) {
		t.Error("Error does not wrap the cause")
	}
}

func TestSpeakReleasesDeviceAfterFailure(t *testing.T) {
	e := newTestEngine("espeak", &recorder{err: errors.New("boom")})
	_ = e.Speak(context.Background(), "first")

	done := make(chan struct{})
	go func() {
		_ = newTestEngine("espeak", &recorder{}).Speak(context.Background(), "second")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("audio device was not released after a failed utterance")
	}
}

func TestSpeakGivesUpWhenContextEnds(t *testing.T) {
	release, err := acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	timed, cancelTimed := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancelTimed()

	tests := []struct {
		name string
		ctx  context.Context
		want error
	}{
		{"cancelled", cancelled, context.Canceled},
		{"deadline", timed, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			done := make(chan error, 1)
			go func() { done <- newTestEngine("espeak-ng", rec).Speak(tt.ctx, "queued") }()

			select {
			case err := <-done:
				if !errors.Is(err, tt.want) {
					t.Errorf("Speak() error = %v, want %v", err, tt.want)
				}
				var speechErr *Error
				if !errors.As(err, &speechErr) {
					t.Errorf("Speak() error = %T, want *Error", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Speak() kept waiting for the audio device after its context ended")
			}
			if len(rec.runs) != 0 {
				t.Errorf("runs = %d, want 0", len(rec.runs))
			}
		})
	}
}

func TestSpeakSerializesUtterances(t *testing.T) {
	var active, maxActive int32
	run := func(ctx context.Context, path string, args []string, stdin string) error {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := &Engine{name: "espeak-ng", path: "espeak-ng", run: run}
			_ = e.Speak(context.Background(), "text")
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Errorf("max concurrent utterances = %d, want 1", maxActive)
	}
}

func TestArgs(t *testing.T) {
	tests := []struct {
		name   string
		engine *Engine
		want   []string
	}{
		{"espeak-ng default", &Engine{name: "espeak-ng"}, []string{"--stdin"}},
		{"espeak voice rate", &Engine{name: "espeak", voice: "en-us", rate: 150}, []string{"-v", "en-us", "-s", "150", "--stdin"}},
		{"say", &Engine{name: "say", voice: "Samantha", rate: 200}, []string{"-v", "Samantha", "-r", "200", "-f", "-"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.engine.args(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("args() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPowerShellArgs(t *testing.T) {
	e := &Engine{name: "powershell", voice: "Microsoft Zira's", rate: 240}
	args := e.args()
	if len(args) != 4 || args[2] != "-Command" {
		t.Fatalf("args() = %v", args)
	}
	script := args[3]
	for _, want := range []string{"System.Speech", "SelectVoice('Microsoft Zira''s')", "$s.Rate = 3", "[Console]::In.ReadToEnd()"} {
		if !strings.Contains(script, want) {
			t.Errorf("script missing %q: %s", want, script)
		}
	}
}

func TestSapiRate(t *testing.T) {
	tests := []struct{ wpm, want int }{
		{180, 0}, {240, 3}, {100, -4}, {1000, 10}, {1, -8}, {-500, -10},
	}
	for _, tt := range tests {
		if got := sapiRate(tt.wpm); got != tt.want {
			t.Errorf("sapiRate(%d) = %d, want %d", tt.wpm, got, tt.want)
		}
	}
}

func TestNewConfiguredEngine(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(name string) (string, error) {
		if name == "espeak" {
			return "/opt/bin/espeak", nil
		}
		return "", exec.ErrNotFound
	}

	e, err := New(config.SpeechConfig{Engine: "espeak", Voice: "en", Rate: 160})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.Name() != "espeak" || e.path != "/opt/bin/espeak" || e.voice != "en" || e.rate != 160 {
		t.Errorf("New() = %+v", e)
	}

	if _, err := New(config.SpeechConfig{Engine: "espeak-ng"}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("New(missing) error = %v, want ErrNoEngine", err)
	}
}

func TestNewUnsupportedEngine(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }

	if _, err := New(config.SpeechConfig{Engine: "festival"}); err == nil {
		t.Error("expected error for unsupported engine")
	}
}

func TestNewNoEngine(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()
	lookPath = func(name string) (string, error) { return "", exec.ErrNotFound }

	if _, err := New(config.SpeechConfig{}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("New() error = %v, want ErrNoEngine", err)
	}
}

func TestEngineName(t *testing.T) {
	tests := map[string]string{
		"espeak-ng":       "espeak-ng",
		"/usr/bin/espeak": "espeak",
		"PowerShell.exe":  "powershell",
	}
	for in, want := range tests {
		if got := engineName(in); got != want {
			t.Errorf("engineName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUnavailable(t *testing.T) {
	s := Unavailable(nil)
	if err := s.Speak(context.Background(), "  "); err != nil {
		t.Errorf("Speak(blank) error = %v, want nil", err)
	}
	err := s.Speak(context.Background(), "hello")
	if !errors.Is(err, ErrNoEngine) {
		t.Errorf("Speak() error = %v, want ErrNoEngine", err)
	}
}
