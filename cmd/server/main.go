package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fakturo/fakturo-api/internal/client/backend"
	"github.com/fakturo/fakturo-api/internal/config"
	"github.com/fakturo/fakturo-api/internal/logger"
	"github.com/fakturo/fakturo-api/internal/server"
	"github.com/fakturo/fakturo-api/internal/services"
	"github.com/fakturo/fakturo-api/internal/store"
)

const shutdownGrace = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use basic log before logger init.
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger.InitLogger(cfg.Env)
	defer logger.Sync()

	httpClient := backend.NewHTTPClient(cfg.BackendBaseURL, zap.L(),
		backend.WithTimeout(cfg.BackendTimeout))
	backendClient := backend.NewClient(httpClient, zap.L())

	draftStore := store.NewDraftStore()
	draftService := services.NewDraftService(backendClient, zap.L())

	srv := server.New(cfg, draftStore, draftService, zap.L())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, shutdownGrace); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}
