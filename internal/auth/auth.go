package auth

import (
	"fmt"
	"os"
	"strings"

	"github.com/fpang/sight-assist/internal/config"
	"github.com/rs/zerolog/log"
)

// GetAPIKey resolves the Gemini API key once at startup.
// Priority order:
//  1. GEMINI_API_KEY environment variable
//  2. GOOGLE_API_KEY environment variable
//  3. apiKey in the config file
//  4. apiKeyFile in the config file (or SIGHT_API_KEY_FILE)
func GetAPIKey(cfg *config.Config) (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from GEMINI_API_KEY")
		return key, nil
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		log.Debug().Msg("Using API key from GOOGLE_API_KEY")
		return key, nil
	}
	if cfg != nil && cfg.APIKey != "" {
		log.Debug().Msg("Using API key from config file")
		return cfg.APIKey, nil
	}
	if cfg != nil && cfg.APIKeyFile != "" {
		key, err := readKeyFile(cfg.APIKeyFile)
		if err != nil {
			return "", err
		}
		log.Debug().Str("file", cfg.APIKeyFile).Msg("Using API key from key file")
		return key, nil
	}

	return "", fmt.Errorf("API key not found. Set GEMINI_API_KEY or apiKeyFile in %s", config.DefaultPath)
}

// readKeyFile reads a key from a file that must be readable by its owner only.
func readKeyFile(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to access API key file: %w", err)
	}
	if mode := fi.Mode().Perm(); mode&0o077 != 0 {
		log.Warn().
			Str("file", path).
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("API key file has insecure permissions (should be 0600)")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("API key file %s is empty", path)
	}
	return key, nil
}
