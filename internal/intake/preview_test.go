package intake

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func TestScaledSize(t *testing.T) {
	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 800, 100, 50},
		{1600, 800, 800, 800, 400},
		{800, 1600, 800, 400, 800},
		{4000, 1, 800, 800, 1},
		{1000, 1000, 500, 500, 500},
	}
	for _, tt := range tests {
		gotW, gotH := scaledSize(tt.w, tt.h, tt.max)
		if gotW != tt.wantW || gotH != tt.wantH {
			t.Errorf("scaledSize(%d, %d, %d) = (%d, %d), want (%d, %d)",
				tt.w, tt.h, tt.max, gotW, gotH, tt.wantW, tt.wantH)
		}
	}
}

func TestPreviewDownscales(t *testing.T) {
	img, err := Prepare(&File{Name: "wide.png", MIMEType: "image/png", Data: encodePNG(t, testImage(200, 100))})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	data, err := Preview(img, 50)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("preview is not a PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 25 {
		t.Errorf("preview size = %dx%d, want 50x25", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
}

func TestPreviewNoImage(t *testing.T) {
	if _, err := Preview(nil, 100); !errors.Is(err, ErrNoFile) {
		t.Errorf("Preview(nil) error = %v, want ErrNoFile", err)
	}
}
