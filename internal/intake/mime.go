package intake

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// SupportedImageExtensions defines the file extensions accepted for upload.
var SupportedImageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// PickerPatterns lists glob patterns for native file pickers.
var PickerPatterns = []string{"*.jpg", "*.jpeg", "*.png"}

// IsSupportedMIMEType reports whether the MIME type is JPEG or PNG.
func IsSupportedMIMEType(mimeType string) bool {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	}
	return false
}

// IsSupportedExtension reports whether the extension is an accepted image type.
func IsSupportedExtension(ext string) bool {
	_, ok := SupportedImageExtensions[strings.ToLower(ext)]
	return ok
}

// ResolveMIMEType picks a MIME type for an upload: the declared type when it
// is supported, otherwise the extension mapping, otherwise content sniffing.
func ResolveMIMEType(name, declared string, data []byte) string {
	if IsSupportedMIMEType(declared) {
		if strings.EqualFold(strings.TrimSpace(declared), "image/jpg") {
			return "image/jpeg"
		}
		return strings.ToLower(strings.TrimSpace(declared))
	}
	if mimeType, ok := SupportedImageExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return mimeType
	}
	return http.DetectContentType(data)
}

// LoadFile reads an image from disk for the CLI and MCP surfaces.
func LoadFile(path string) (*File, error) {
	log.Debug().Str("path", path).Msg("Loading image file")

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupportedExtension(ext) {
		return nil, fmt.Errorf("unsupported file extension: %s (expected .jpg, .jpeg or .png)", ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return &File{
		Name:     filepath.Base(path),
		MIMEType: SupportedImageExtensions[ext],
		Data:     data,
	}, nil
}
