// Package config loads service configuration from the environment.
package config

import (
	"bufio"
	"os"
	"strings"
	"time"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	loadDotEnv(".env")
}

func loadDotEnv(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)
		// Remove surrounding quotes
		if len(val) >= 2 && ((val[0] == '"' && val[len(val)-1] == '"') || (val[0] == '\'' && val[len(val)-1] == '\'')) {
			val = val[1 : len(val)-1]
		}
		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, val)
		}
	}
}

const (
	defaultPort           = "8080"
	defaultSheetBaseURL   = "https://airtable.com"
	defaultFetchTimeout   = 15 * time.Second
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	defaultAnthropicBase  = "https://api.anthropic.com"
)

// Config holds everything the server needs at boot.
type Config struct {
	Port         string
	DatabaseURL  string
	SheetBaseURL string
	FetchTimeout time.Duration

	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
}

// Load reads configuration from the environment with defaults applied.
func Load() Config {
	return Config{
		Port:             envOr("PORT", defaultPort),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SheetBaseURL:     envOr("SHEET_BASE_URL", defaultSheetBaseURL),
		FetchTimeout:     envDurationOr("FETCH_TIMEOUT", defaultFetchTimeout),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:   envOr("ANTHROPIC_MODEL", defaultAnthropicModel),
		AnthropicBaseURL: envOr("ANTHROPIC_BASE_URL", defaultAnthropicBase),
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
