package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fadedpez/reverseroulette/internal/config"
	"github.com/fadedpez/reverseroulette/internal/logging"
	"github.com/fadedpez/reverseroulette/pkg/blobserver"
	"github.com/fadedpez/reverseroulette/pkg/storage/backend"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.BlobBackend == config.BackendHTTP {
		// serving the store from itself would loop
		cfg.BlobBackend = config.BackendMemory
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.IsDevelopment())
	logging.SetDefault(logger)
	defer logger.Sync()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open %s blob store: %v", cfg.BlobBackend, err)
	}
	defer store.Close()

	server := blobserver.NewServer(store, cfg.BlobMaxAge, logger)
	server.StartSweeper(ctx)
	defer server.Stop()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Blob server listening on %s (%s backend)", cfg.ListenAddr, cfg.BlobBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down blob server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}
