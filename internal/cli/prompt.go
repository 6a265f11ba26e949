package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fpang/sight-assist/internal/intake"
	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// ErrCanceled is returned when the user dismisses the picker or enters nothing.
var ErrCanceled = errors.New("no image selected")

// PromptForImage asks for an image path on in. Quotes from drag-and-drop
// into a terminal are stripped.
func PromptForImage(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Image path (JPG, JPEG, PNG): ")

	reader := bufio.NewReader(in)
	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		log.Warn().Err(err).Msg("Failed to read input")
		return "", err
	}

	input = strings.Trim(strings.TrimSpace(input), `"'`)
	if input == "" {
		return "", ErrCanceled
	}
	return input, nil
}

// PickImage opens a native file dialog restricted to JPG, JPEG and PNG.
func PickImage() (string, error) {
	path, err := zenity.SelectFile(
		zenity.Title("Select an image"),
		zenity.FileFilters{
			{
				Name:     "Images (JPG, JPEG, PNG)",
				Patterns: intake.PickerPatterns,
				CaseFold: true,
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("file picker failed: %w", err)
	}
	log.Info().Str("path", path).Msg("Image picked via native dialog")
	return path, nil
}
