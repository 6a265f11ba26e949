package ocr

import (
	"context"
	"errors"
	"image"
	"testing"
)

type fakeEngine struct {
	text  string
	err   error
	calls int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(ctx context.Context, bitmap image.Image) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestExtractTextTrims(t *testing.T) {
	engine := &fakeEngine{text: "  HELLO WORLD\n\f"}
	got, err := ExtractText(context.Background(), engine, image.NewGray(image.Rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if got != "HELLO WORLD" {
		t.Errorf("ExtractText() = %q, want %q", got, "HELLO WORLD")
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls)
	}
}

func TestExtractTextEmptyIsNotError(t *testing.T) {
	engine := &fakeEngine{text: " \n "}
	got, err := ExtractText(context.Background(), engine, image.NewGray(image.Rect(0, 0, 1, 1)))
	if err != nil {
		t.Fatalf("ExtractText() error = %v, want nil", err)
	}
	if got != "" {
		t.Errorf("ExtractText() = %q, want empty", got)
	}
}

func TestExtractTextEngineFailure(t *testing.T) {
	cause := errors.New("tesseract: executable not found")
	engine := &fakeEngine{err: cause}

	_, err := ExtractText(context.Background(), engine, image.NewGray(image.Rect(0, 0, 1, 1)))

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("ExtractText() error = %v, want *EngineError", err)
	}
	if engineErr.Engine != "fake" {
		t.Errorf("EngineError.Engine = %q, want fake", engineErr.Engine)
	}
	if !errors.Is(err, cause) {
		t.Error("EngineError does not wrap the engine error")
	}
	if engine.calls != 1 {
		t.Errorf("engine calls = %d, want 1 (no retry)", engine.calls)
	}
}

func TestExtractTextNilBitmap(t *testing.T) {
	engine := &fakeEngine{}
	_, err := ExtractText(context.Background(), engine, nil)

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("ExtractText(nil) error = %v, want *EngineError", err)
	}
	if engine.calls != 0 {
		t.Errorf("engine calls = %d, want 0", engine.calls)
	}
}
