package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/suPer8Hu/image-creator/internal/ai"
	"github.com/suPer8Hu/image-creator/internal/app"
	"github.com/suPer8Hu/image-creator/internal/config"
	"github.com/suPer8Hu/image-creator/internal/creator"
	"github.com/suPer8Hu/image-creator/internal/httpapi"
	"github.com/suPer8Hu/image-creator/internal/ids"
	"github.com/suPer8Hu/image-creator/internal/logging"
	"github.com/suPer8Hu/image-creator/internal/metrics"
	"github.com/suPer8Hu/image-creator/internal/store/rabbitmq"
)

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

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal("open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() { _ = closeStore() }()

	var remote ai.Caller
	if cfg.Rabbit.Remote {
		rc, err := rabbitmq.Dial(cfg.Rabbit.URL, cfg.Rabbit.Queue)
		if err != nil {
			log.Fatal("rabbit dial", zap.Error(err))
		}
		defer func() { _ = rc.Close() }()
		remote = rc
	}

	brains := ai.NewManager()
	if err := app.RegisterBrains(brains, cfg, remote, log); err != nil {
		log.Fatal("register brains", zap.Error(err))
	}
	if len(brains.Available(ai.CapabilityImageGeneration)) == 0 {
		log.Warn("no image generation brain configured")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gen := ids.NewGenerator()
	messages := creator.NewMessageStore(store, cfg.Store.Namespace, log)
	registry, err := creator.NewRegistry(ctx, creator.NewSessionStore(store, cfg.Store.Namespace, log), messages, gen, log, m)
	if err != nil {
		log.Fatal("load creations", zap.Error(err))
	}
	ws := creator.NewWorkspace(registry, messages, brains, creator.NewPreviews(), gen, cfg.RenameDebounce, log, m)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(ws, cfg, reg, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", zap.String("addr", cfg.HTTPAddr), zap.Bool("auth", cfg.Auth.Enabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	// Closing the views first ends open event streams, which
	// srv.Shutdown would otherwise wait on until its deadline.
	ws.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
}
