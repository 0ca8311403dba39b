package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the gateway. Everything comes
// from the environment; a .env file is honored for local development.
type Config struct {
	Env            string
	Port           string
	BackendBaseURL string
	BackendTimeout time.Duration
	AllowedOrigins []string
	SearchDebounce time.Duration
}

const (
	defaultPort           = "8080"
	defaultBackendTimeout = 30 * time.Second
	defaultSearchDebounce = 300 * time.Millisecond
)

// Load reads configuration from the environment. The only hard requirement
// is BACKEND_BASE_URL; the gateway cannot do anything without a backend.
func Load() (*Config, error) {
	// Missing .env is fine in deployed environments.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.Load: failed to load .env: %w", err)
	}

	cfg := &Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", defaultPort),
		BackendBaseURL: os.Getenv("BACKEND_BASE_URL"),
		BackendTimeout: getDuration("BACKEND_TIMEOUT_MS", defaultBackendTimeout),
		SearchDebounce: getDuration("SEARCH_DEBOUNCE_MS", defaultSearchDebounce),
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:3001"}
	}

	if cfg.BackendBaseURL == "" {
		return nil, fmt.Errorf("config.Load: BACKEND_BASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
