// Package app holds the wiring shared by the server and worker binaries.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/config"
	"github.com/suPer8Hu/image-creator/internal/db"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/store/kv"
	"github.com/suPer8Hu/image-creator/internal/store/redisstore"
)

// OpenStore opens the key-value backend named by cfg.Driver. The returned
// func releases it.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (kv.Store, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "redis":
		s := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return s, s.Close, nil
	case "", "sqlite", "mysql":
		gdb, err := db.Connect(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		s, err := kv.NewGormStore(gdb)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, err
		}
		return s, sqlDB.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// RegisterBrains registers every configured backend on m. With a non-nil
// remote, calls are forwarded through it instead of made in-process.
func RegisterBrains(m *ai.Manager, cfg config.Config, remote ai.Caller, log *zap.Logger) error {
	log = logging.OrNop(log)

	type entry struct {
		brain  ai.Brain
		tags   []string
		client ai.Client
	}
	var entries []entry

	if cfg.OpenRouter.Enabled() {
		o := cfg.OpenRouter
		entries = append(entries, entry{
			brain: ai.Brain{
				ID:          "openrouter",
				DisplayName: "OpenRouter (" + o.Model + ")",
				Description: "Image generation through OpenRouter chat completions",
			},
			tags:   o.Capabilities,
			client: ai.NewOpenRouterBrain(o.BaseURL, o.APIKey, o.Model, o.SiteURL, o.AppName),
		})
	}
	if cfg.Ollama.Enabled() {
		o := cfg.Ollama
		entries = append(entries, entry{
			brain: ai.Brain{
				ID:          "ollama",
				DisplayName: "Ollama (" + o.Model + ")",
				Description: "Local model served by Ollama",
			},
			tags:   o.Capabilities,
			client: ai.NewOllamaBrain(o.BaseURL, o.Model),
		})
	}

	for _, e := range entries {
		caps, err := ai.ParseCapabilities(e.tags)
		if err != nil {
			return fmt.Errorf("brain %s: %w", e.brain.ID, err)
		}
		e.brain.Capabilities = caps

		client := e.client
		if remote != nil {
			client = &ai.RemoteBrain{BrainID: e.brain.ID, Caller: remote, Timeout: cfg.Rabbit.CallTimeout}
		}
		if err := m.Register(e.brain, client); err != nil {
			return err
		}
		log.Info("brain registered",
			zap.String("brain", e.brain.ID),
			zap.Any("capabilities", caps),
			zap.Bool("remote", remote != nil),
		)
	}
	return nil
}
