// Package main implements the entry point for the Flashbox API server,
// which schedules users' spaced repetition flashcards and runs their bulk
// import and export jobs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/flashbox/flashbox-api/internal/config"
	"github.com/flashbox/flashbox-api/internal/platform/logger"
	"github.com/flashbox/flashbox-api/internal/platform/migrate"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// run wires configuration, logging, the database, and the application
// together, then hands control to the application until shutdown.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.Setup(cfg.Server)
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupAppDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}

	if err := migrate.Up(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Info("database migrations applied")

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return err
	}

	return app.Run(ctx)
}
