package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pixelflare/studio/internal/config"
	"github.com/pixelflare/studio/internal/logger"
	"github.com/pixelflare/studio/internal/server"
	"github.com/pixelflare/studio/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	srv, err := server.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	sweeper, err := workers.NewGrantSweeper(srv.GetDB(), cfg.Auth.GrantSweepSchedule, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create grant sweeper")
	}
	sweeper.Start()
	defer sweeper.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", version).Msg("Starting studio server...")

	if err := srv.Start(ctx); err != nil {
		sweeper.Stop()
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
}
