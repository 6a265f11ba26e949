package main

import (
	"context"
	"os"
	"time"

	"github.com/fpang/sight-assist/internal/cli"
	"github.com/fpang/sight-assist/internal/config"
	"github.com/fpang/sight-assist/internal/logging"
	"github.com/fpang/sight-assist/internal/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI flags
var (
	configFlag string
	modelFlag  string
)

// cfg is resolved once in the root PersistentPreRun.
var cfg *config.Config

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "sight-cli",
	Short: "Describe, read, and speak images from the terminal",
	Long: `Sight CLI helps visually impaired users understand images.

It can describe a scene with Gemini, extract visible text with Tesseract,
and read that text aloud with the local speech engine. Run one action on a
file, open an interactive console, or serve the same tools over MCP.

Examples:
  sight-cli describe photo.jpg
  sight-cli extract --pick
  sight-cli speak receipt.png
  sight-cli console
  sight-cli mcp
  sight-cli validate`,
	PersistentPreRun: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to config file (default ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", config.DefaultModel, "Gemini model to use (e.g., gemini-2.5-flash, gemini-2.5-pro)")

	for _, cmd := range actionCommands() {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(consoleCmd, mcpCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration shared by every subcommand.
func setup(cmd *cobra.Command, args []string) {
	logging.Init()

	var err error
	cfg, err = config.Load(configFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if cmd.Flags().Changed("model") {
		cfg.Model = modelFlag
	}
	if cfg.Metrics {
		metrics.Enable(os.Stderr, "sight-cli")
	}
}

// initEngines builds the adapters and emits the startup summary.
func initEngines(ctx context.Context, command string) *cli.Engines {
	start := time.Now()
	engines := cli.InitEngines(ctx, cfg)

	logging.NewStartupLogger("sight-cli").
		Version(version).
		Engine("scene", engines.Model).
		Engine("ocr", engines.OCR.Name()).
		Engine("speech", engines.SpeechName).
		Feature("describe", engines.Models != nil).
		Feature("metrics", cfg.Metrics).
		Config("command", command).
		InitDuration(time.Since(start)).
		Log()

	return engines
}
