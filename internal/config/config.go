// Package config loads Sight Assist settings.
//
// Resolution order, lowest to highest priority:
//  1. Built-in defaults
//  2. YAML file (sight-assist.yaml in the working directory, or --config)
//  3. Environment variables
//  4. Command-line flags (applied by the cmd packages)
//
// The resolved Config is built once at startup and passed explicitly into
// adapter constructors; nothing reads it as ambient global state.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no --config flag is given.
const DefaultPath = "sight-assist.yaml"

// Defaults.
const (
	DefaultModel      = "gemini-2.5-flash"
	DefaultPort       = 8080
	DefaultSessionTTL = 30 * time.Minute
)

// Config is the resolved process configuration.
type Config struct {
	// APIKey is the Gemini credential. Prefer GEMINI_API_KEY or APIKeyFile
	// over putting it in the YAML file.
	APIKey     string `yaml:"apiKey"`
	APIKeyFile string `yaml:"apiKeyFile"`
	Model      string `yaml:"model"`

	Speech SpeechConfig `yaml:"speech"`
	OCR    OCRConfig    `yaml:"ocr"`
	Web    WebConfig    `yaml:"web"`

	// Metrics enables per-action metric records on stderr.
	Metrics bool `yaml:"metrics"`
}

// SpeechConfig selects and tunes the local speech engine.
type SpeechConfig struct {
	// Engine is a command name (espeak-ng, espeak, say, powershell).
	// Empty means auto-detect.
	Engine string `yaml:"engine"`
	Voice  string `yaml:"voice"`
	// Rate is words per minute; 0 keeps the engine default.
	Rate int `yaml:"rate"`
}

// OCRConfig tunes the Tesseract engine.
type OCRConfig struct {
	TessdataPrefix string `yaml:"tessdataPrefix"`
}

// WebConfig holds sight-web settings.
type WebConfig struct {
	Port       int           `yaml:"port"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: DefaultModel,
		Web: WebConfig{
			Port:       DefaultPort,
			SessionTTL: DefaultSessionTTL,
		},
	}
}

// Load reads the YAML file at path over the defaults and then applies
// environment overrides. A missing file at DefaultPath is not an error; a
// missing file at an explicitly requested path is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Loaded config file")
	case errors.Is(err, os.ErrNotExist) && !explicit:
		log.Debug().Str("path", path).Msg("No config file, using defaults")
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	cfg.fillDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("SIGHT_API_KEY_FILE"); v != "" {
		c.APIKeyFile = v
	}
	if v := os.Getenv("SIGHT_SPEECH_ENGINE"); v != "" {
		c.Speech.Engine = v
	}
	if v := os.Getenv("SIGHT_SPEECH_VOICE"); v != "" {
		c.Speech.Voice = v
	}
	if v := os.Getenv("SIGHT_TESSDATA_PREFIX"); v != "" {
		c.OCR.TessdataPrefix = v
	}
	if v := os.Getenv("SIGHT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Web.Port = port
		} else {
			log.Warn().Str("value", v).Msg("Ignoring invalid SIGHT_PORT")
		}
	}
	if v := os.Getenv("SIGHT_METRICS"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Metrics = enabled
		}
	}
}

func (c *Config) fillDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Web.Port <= 0 {
		c.Web.Port = DefaultPort
	}
	if c.Web.SessionTTL <= 0 {
		c.Web.SessionTTL = DefaultSessionTTL
	}
}
