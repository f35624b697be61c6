// Command server runs the turflog API.
//
// main stays small: load configuration, build the logger, make sure the
// database directory exists, then hand everything to internal/server.
// Configuration comes from the environment (and .env when present); see
// internal/config for the variables.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/turflog/internal/config"
	"github.com/sakif/turflog/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// sqlite creates the file but not its parent directory.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	if cfg.Providers.FootballDataAPIKey == "" {
		logger.Warn("FOOTBALL_DATA_API_KEY not set, /live_scores will push upstream errors")
	}
	if cfg.Providers.MapsAPIKey == "" {
		logger.Warn("MAPS_API_KEY not set, /turf_near_me will answer 502")
	}

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the stores on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
