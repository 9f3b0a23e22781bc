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

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "imageCreator", cfg.Store.Namespace)
	assert.Equal(t, time.Second, cfg.RenameDebounce)
	assert.Equal(t, []string{"image_generation", "vision"}, cfg.OpenRouter.Capabilities)
	assert.False(t, cfg.Auth.Enabled())
	assert.False(t, cfg.OpenRouter.Enabled())
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.LoginRatePerMinute)
	assert.Equal(t, 200*time.Second, cfg.Rabbit.CallTimeout)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("RENAME_DEBOUNCE", "250ms")
	t.Setenv("RABBIT_WORKER_CONCURRENCY", "500")
	t.Setenv("OLLAMA_MODEL", "llava")
	t.Setenv("RABBIT_CALL_TIMEOUT", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.RenameDebounce)
	assert.Equal(t, 50, cfg.Rabbit.WorkerConcurrency)
	assert.Equal(t, 90*time.Second, cfg.Rabbit.CallTimeout)
	assert.True(t, cfg.Ollama.Enabled())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("RENAME_DEBOUNCE", "soon")
	_, err := Load()
	assert.Error(t, err)
}
