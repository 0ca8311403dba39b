package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/fakturo-api/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend:4000")
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("BACKEND_TIMEOUT_MS", "")
	t.Setenv("SEARCH_DEBOUNCE_MS", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://backend:4000", cfg.BackendBaseURL)
	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, []string{"http://localhost:3001"}, cfg.AllowedOrigins)
}

func TestLoad_RequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_BASE_URL")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend:4000")
	t.Setenv("APP_ENV", "release")
	t.Setenv("PORT", "9090")
	t.Setenv("BACKEND_TIMEOUT_MS", "5000")
	t.Setenv("SEARCH_DEBOUNCE_MS", "150")
	t.Setenv("ALLOWED_ORIGINS", " http://a.example , http://b.example ,")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "release", cfg.Env)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 150*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidDurationsFallBack(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend:4000")
	t.Setenv("BACKEND_TIMEOUT_MS", "not-a-number")
	t.Setenv("SEARCH_DEBOUNCE_MS", "-10")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.BackendTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SearchDebounce)
}
