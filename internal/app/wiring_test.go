package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/config"
)

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	s, closeFn, err := OpenStore(ctx, config.StoreConfig{Driver: "sqlite", DSN: "file:app_wiring?mode=memory&cache=shared"})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, s.Set(ctx, "k", []byte(`1`)))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte(`1`), v)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, _, err := OpenStore(context.Background(), config.StoreConfig{Driver: "etcd"})
	require.Error(t, err)
}

func TestRegisterBrains(t *testing.T) {
	cfg := config.Config{
		OpenRouter: config.OpenRouterConfig{APIKey: "k", Model: "m", Capabilities: []string{"image_generation"}},
		Ollama:     config.OllamaConfig{Model: "llava", Capabilities: []string{"text_generation", "vision"}},
	}
	m := ai.NewManager()
	require.NoError(t, RegisterBrains(m, cfg, nil, zap.NewNop()))

	images := m.Available(ai.CapabilityImageGeneration)
	require.Len(t, images, 1)
	assert.Equal(t, "openrouter", images[0].ID)

	c, ok := m.Client("ollama")
	require.True(t, ok)
	assert.IsType(t, &ai.OllamaBrain{}, c)
}

func TestRegisterBrainsRemote(t *testing.T) {
	cfg := config.Config{
		OpenRouter: config.OpenRouterConfig{APIKey: "k", Model: "m", Capabilities: []string{"image_generation"}},
		Rabbit:     config.RabbitConfig{CallTimeout: time.Minute},
	}
	m := ai.NewManager()
	caller := ai.CallerFunc(func(ctx context.Context, body []byte) ([]byte, error) { return nil, nil })
	require.NoError(t, RegisterBrains(m, cfg, caller, zap.NewNop()))

	c, ok := m.Client("openrouter")
	require.True(t, ok)
	require.IsType(t, &ai.RemoteBrain{}, c)
	assert.Equal(t, time.Minute, c.(*ai.RemoteBrain).Timeout)
}

func TestRegisterBrainsRejectsUnknownCapability(t *testing.T) {
	cfg := config.Config{
		Ollama: config.OllamaConfig{Model: "llava", Capabilities: []string{"telepathy"}},
	}
	err := RegisterBrains(ai.NewManager(), cfg, nil, zap.NewNop())
	require.ErrorIs(t, err, ai.ErrCapability)
}
