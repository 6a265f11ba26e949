package main

import (
	"context"
	"fmt"

	"github.com/fpang/sight-assist/internal/ocr/tesseract"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the API key and report which local engines are available",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		engines := initEngines(ctx, "validate")

		fmt.Printf("OCR engine:    %s (installed: %t)\n", engines.OCR.Name(), tesseract.Available())
		fmt.Printf("Speech engine: %s\n", engines.SpeechName)
		fmt.Printf("Model:         %s\n", engines.Model)

		engines.Validate(ctx)
		fmt.Println("API key:       valid")
	},
}
