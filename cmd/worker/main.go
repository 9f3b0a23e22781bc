package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/app"
	"github.com/suPer8Hu/image-creator/internal/config"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/store/rabbitmq"
)

// The worker answers generation calls that the server forwards when
// RABBIT_REMOTE is set. It registers the same brains, but in-process.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	brains := ai.NewManager()
	if err := app.RegisterBrains(brains, cfg, nil, log); err != nil {
		log.Fatal("register brains", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &rabbitmq.Server{
		URL:         cfg.Rabbit.URL,
		Queue:       cfg.Rabbit.Queue,
		Concurrency: cfg.Rabbit.WorkerConcurrency,
		Handler:     ai.ServeRemote(brains),
		Log:         log,
	}
	if err := srv.Serve(ctx); err != nil {
		log.Fatal("worker stopped", zap.Error(err))
	}
	log.Info("worker shut down")
}
