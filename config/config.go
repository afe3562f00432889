// Package config loads process configuration from the environment. A .env
// file is honored when present so local development does not need exported
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultMaxTokens      = 4096
	defaultModelID        = "gpt-4o-mini"
	defaultRequestTimeout = 60 * time.Second
)

// Config holds everything the process needs at startup: access control,
// provider credentials, and dispatcher tuning.
type Config struct {
	AllowedUserIDs []string // comma-separated ALLOWED_USER_IDS
	AdminID        string

	OpenRouterAPIKey string
	FalAPIKey        string
	GeminiAPIKey     string // optional

	MaxTokens      int           // default history token budget
	DefaultModel   string        // model id seeding new sessions
	RequestTimeout time.Duration // per provider call
	UsageDBPath    string        // optional; empty means log-only usage sink
}

// FromEnv reads configuration from the environment, loading a .env file
// first when one exists. ALLOWED_USER_IDS and ADMIN_ID are required; the
// Gemini key is optional because the Gemini models are only registered when
// it is set.
func FromEnv() (*Config, error) {
	// Missing .env is fine; variables may come from the real environment.
	_ = godotenv.Load()

	allowedRaw := os.Getenv("ALLOWED_USER_IDS")
	if allowedRaw == "" {
		return nil, fmt.Errorf("config: ALLOWED_USER_IDS is required")
	}
	var allowed []string
	for _, id := range strings.Split(allowedRaw, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			allowed = append(allowed, trimmed)
		}
	}

	adminID := os.Getenv("ADMIN_ID")
	if adminID == "" {
		return nil, fmt.Errorf("config: ADMIN_ID is required")
	}

	cfg := &Config{
		AllowedUserIDs:   allowed,
		AdminID:          adminID,
		OpenRouterAPIKey: os.Getenv("OPENROUTER_API_KEY"),
		FalAPIKey:        os.Getenv("FAL_API_KEY"),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		MaxTokens:        intEnv("MAX_TOKENS", defaultMaxTokens),
		DefaultModel:     stringEnv("DEFAULT_MODEL", defaultModelID),
		RequestTimeout:   durationEnv("REQUEST_TIMEOUT", defaultRequestTimeout),
		UsageDBPath:      os.Getenv("USAGE_DB_PATH"),
	}

	if cfg.MaxTokens <= 0 {
		return nil, fmt.Errorf("config: MAX_TOKENS must be positive, got %d", cfg.MaxTokens)
	}

	return cfg, nil
}

func stringEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
