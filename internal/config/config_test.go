package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("FREERADICAL_URL", "")
	t.Setenv("FREERADICAL_TIMEOUT_MS", "")
	t.Setenv("FREERADICAL_SESSION_DB", "/tmp/session.db")

	cfg := LoadClient()
	assert.Equal(t, "http://localhost:8000", cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "/tmp/session.db", cfg.SessionDB)
	assert.Empty(t, cfg.Log.Dir)
}

func TestLoadClientOverrides(t *testing.T) {
	t.Setenv("FREERADICAL_URL", "https://cms.example.com")
	t.Setenv("FREERADICAL_API_KEY", "k1")
	t.Setenv("FREERADICAL_TIMEOUT_MS", "2500")
	t.Setenv("FREERADICAL_DEBUG", "true")

	cfg := LoadClient()
	assert.Equal(t, "https://cms.example.com", cfg.BaseURL)
	assert.Equal(t, "k1", cfg.APIKey)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Debug)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	assert.Panics(t, func() { Load() })
}

func TestLoadServer(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("API_KEYS", " a, ,b ")
	t.Setenv("CDN_BASE_URL", "https://cdn.example.com/")
	t.Setenv("LOG_RETENTION_DAYS", "30")

	cfg := Load()
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, []string{"a", "b"}, cfg.APIKeys)
	assert.Equal(t, "https://cdn.example.com", cfg.CDNBaseURL)
	assert.Equal(t, 7, cfg.Log.RetentionDays)
	assert.Equal(t, "8000", cfg.Port)
}
