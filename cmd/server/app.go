package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/config"
	"github.com/flashbox/flashbox-api/internal/domain/srs"
	"github.com/flashbox/flashbox-api/internal/job"
	"github.com/flashbox/flashbox-api/internal/notify"
	"github.com/flashbox/flashbox-api/internal/platform/clock"
	"github.com/flashbox/flashbox-api/internal/platform/postgres"
	"github.com/flashbox/flashbox-api/internal/service"
	"github.com/flashbox/flashbox-api/internal/store"
)

// application holds the shared application dependencies so that startup and
// shutdown manage them in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	cardStore     store.CardStore
	deckStore     store.DeckStore
	settingsStore store.SettingsStore
	jobStore      job.Store

	// Services
	reviewService service.ReviewService
	bulkService   service.BulkService

	// Background machinery
	coordinator *job.Coordinator
	runner      *job.Runner
	checker     *notify.Checker
}

// newApplication creates an application with all dependencies initialized.
// Core dependencies (config, logger, database) must be established by the
// caller before this point.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.settingsStore = postgres.NewPostgresSettingsStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db, logger)

	// Jobs that were pending or running when the previous process died
	// lost their in-memory source and sink streams and can never finish;
	// fail them so status pollers see a terminal state instead of a job
	// stuck non-terminal forever.
	if err := failAbandonedJobs(ctx, app.jobStore, logger); err != nil {
		return nil, err
	}

	app.coordinator = job.NewCoordinator(
		app.cardStore,
		app.jobStore,
		nil, // row-failure reports need an object store; none is configured yet
		job.NewRegistry(),
		clock.SystemClock{},
		job.CoordinatorConfig{Timeout: cfg.Job.Timeout},
		logger,
	)

	app.runner = job.NewRunner(job.RunnerConfig{
		WorkerCount: cfg.Job.WorkerCount,
		QueueSize:   cfg.Job.QueueSize,
	}, logger)
	app.runner.Start()

	app.reviewService = service.NewReviewService(
		db,
		app.cardStore,
		app.settingsStore,
		srs.NewEngine(),
		srs.NewPlanner(),
		clock.SystemClock{},
		logger,
	)
	app.bulkService = service.NewBulkService(
		app.deckStore,
		app.jobStore,
		app.coordinator,
		app.runner,
		logger,
	)

	app.checker = notify.NewChecker(
		app.settingsStore,
		logSink{logger: logger},
		clock.SystemClock{},
		cfg.Notification.SweepInterval,
		logger,
	)

	logger.Info("application initialized")
	return app, nil
}

// Run starts the background machinery and the HTTP listener, then blocks
// until the context is cancelled and everything has drained.
func (app *application) Run(ctx context.Context) error {
	checkerCtx, stopChecker := context.WithCancel(ctx)
	checkerDone := make(chan struct{})
	go func() {
		defer close(checkerDone)
		app.checker.Run(checkerCtx)
	}()

	err := app.startHTTPServer(ctx)

	stopChecker()
	<-checkerDone
	app.cleanup()

	return err
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.runner != nil {
		app.runner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}

// failAbandonedJobs moves every persisted non-terminal job (PENDING or
// RUNNING) to a terminal FAILED state, keeping whatever partial progress
// the dead process flushed.
func failAbandonedJobs(ctx context.Context, jobs job.Store, logger *slog.Logger) error {
	interrupted, err := jobs.ListInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("failed to list interrupted jobs: %w", err)
	}

	now := time.Now().UTC()
	for _, snap := range interrupted {
		failed, err := snap.Abandon("interrupted by server restart", now)
		if err != nil {
			return fmt.Errorf("failed to build terminal snapshot for job %s: %w", snap.JobID, err)
		}
		if err := jobs.CommitTerminal(ctx, failed); err != nil {
			logger.Error("failed to fail abandoned job", "job_id", snap.JobID, "error", err)
			continue
		}
		logger.Warn("abandoned job marked failed",
			"job_id", snap.JobID,
			"last_status", snap.Status,
			"processed_rows", snap.ProcessedRows)
	}
	return nil
}

// logSink records due reminders in the log. Real delivery channels (push,
// email) plug in behind notify.NotificationSink.
type logSink struct {
	logger *slog.Logger
}

func (s logSink) Notify(_ context.Context, userID uuid.UUID, fireAt time.Time) error {
	s.logger.Info("study reminder due",
		"user_id", userID,
		"fire_at", fireAt)
	return nil
}
