package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, BackendFile, cfg.SettingsBackend)
	assert.Equal(t, 30*time.Second, cfg.StatusPollInterval)
	assert.Equal(t, 10*time.Second, cfg.TestConnectionTimeout)
	assert.Empty(t, cfg.DefaultAPIURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DEBUG", "true")
	t.Setenv("SETTINGS_BACKEND", "memory")
	t.Setenv("STATUS_POLL_INTERVAL", "5s")
	t.Setenv("DEFAULT_API_URL", "https://api.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.True(t, cfg.Debug)
	assert.Equal(t, BackendMemory, cfg.SettingsBackend)
	assert.Equal(t, 5*time.Second, cfg.StatusPollInterval)
	assert.Equal(t, "https://api.example.com", cfg.DefaultAPIURL)
}

func TestLoadRejectsBadValues(t *testing.T) {

	t.Run("backend", func(t *testing.T) {
		t.Setenv("SETTINGS_BACKEND", "redis")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("backoff", func(t *testing.T) {
		t.Setenv("STATUS_POLL_INTERVAL", "10m")
		t.Setenv("POLL_MAX_BACKOFF", "1m")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("duration", func(t *testing.T) {
		t.Setenv("STATUS_POLL_INTERVAL", "soon")
		_, err := Load()
		assert.Error(t, err)
	})
}
