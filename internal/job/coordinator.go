package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/platform/clock"
	"github.com/flashbox/flashbox-api/internal/store"
)

// CoordinatorConfig holds tuning knobs for job execution.
type CoordinatorConfig struct {
	// Timeout is the wall-clock budget for a single job. A job that
	// exceeds it ends as TIMEOUT with its partial progress preserved.
	Timeout time.Duration

	// FlushEvery is the number of committed rows between persisted
	// snapshot updates.
	FlushEvery int
}

// DefaultCoordinatorConfig returns a CoordinatorConfig with reasonable defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		Timeout:    10 * time.Minute,
		FlushEvery: 25,
	}
}

// Coordinator drives bulk jobs end to end: it claims a job, runs the per-row
// loop, keeps the live snapshot current for pollers, and commits exactly one
// terminal transition. Deadline and cancellation are checked at row
// boundaries only, so an in-flight row mutation always completes or fails
// cleanly before a terminal state commits.
type Coordinator struct {
	cards    store.CardStore
	jobs     Store
	reports  ReportSink
	registry *Registry
	clock    clock.Clock
	config   CoordinatorConfig
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. The reports sink may be nil, in
// which case imports with row failures complete without an error report URL.
func NewCoordinator(
	cards store.CardStore,
	jobs Store,
	reports ReportSink,
	registry *Registry,
	clk clock.Clock,
	config CoordinatorConfig,
	logger *slog.Logger,
) *Coordinator {
	if config.Timeout <= 0 {
		config.Timeout = DefaultCoordinatorConfig().Timeout
	}
	if config.FlushEvery <= 0 {
		config.FlushEvery = DefaultCoordinatorConfig().FlushEvery
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		cards:    cards,
		jobs:     jobs,
		reports:  reports,
		registry: registry,
		clock:    clk,
		config:   config,
		logger:   logger.With(slog.String("component", "job_coordinator")),
	}
}

// Registry exposes the live-snapshot registry for status pollers.
func (c *Coordinator) Registry() *Registry {
	return c.registry
}

// RunImport executes an import job against its source stream. The returned
// error is non-nil only for claim or terminal-commit failures; every job
// outcome, including FAILED and TIMEOUT, is reported through the job record.
func (c *Coordinator) RunImport(ctx context.Context, j *Job, source SourceStream) error {
	tr, err := c.registry.claim(j.ID, NewSnapshot(j))
	if err != nil {
		return err
	}
	defer c.registry.release(j.ID)

	logger := c.logger.With("job_id", j.ID, "job_type", j.Type)

	tr.setTotal(source.Len())
	if err := c.start(ctx, tr, logger); err != nil {
		return err
	}

	existing, err := c.cards.ListByDeck(ctx, j.DeckID)
	if err != nil {
		return c.finalize(ctx, tr, logger, StatusFailed,
			fmt.Sprintf("failed to read target deck: %v", err), "", "")
	}

	deadline := c.clock.Now().Add(c.config.Timeout)
	var failures []RowFailure

	for rowNum := 1; ; rowNum++ {
		if err := ctx.Err(); err != nil {
			return c.finalize(ctx, tr, logger, StatusFailed,
				fmt.Sprintf("cancelled: %v", err), "", c.writeReport(j.ID, failures))
		}
		if c.clock.Now().After(deadline) {
			return c.finalize(ctx, tr, logger, StatusTimeout,
				"deadline exceeded", "", c.writeReport(j.ID, failures))
		}

		row, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.finalize(ctx, tr, logger, StatusFailed,
				fmt.Sprintf("%v: %v", ErrSourceUnreadable, err), "", c.writeReport(j.ID, failures))
		}

		resolution, err := Resolve(row, existing, j.DuplicatePolicy)
		if err != nil {
			tr.rowFailed()
			failures = append(failures, RowFailure{RowNumber: rowNum, Reason: err.Error()})
			logger.Warn("import row rejected", "row", rowNum, "error", err)
			c.flush(ctx, tr, logger)
			continue
		}

		switch resolution.Action {
		case ActionSkip:
			tr.rowSkipped()

		case ActionUpdate:
			if err := c.cards.UpdateContent(ctx, resolution.Target.ID, resolution.Front, resolution.Back); err != nil {
				return c.finalize(ctx, tr, logger, StatusFailed,
					fmt.Sprintf("storage write failed: %v", err), "", c.writeReport(j.ID, failures))
			}
			resolution.Target.Back = resolution.Back
			tr.rowSucceeded()

		case ActionInsert:
			card, err := domain.NewCard(j.UserID, j.DeckID, resolution.Front, resolution.Back)
			if err != nil {
				tr.rowFailed()
				failures = append(failures, RowFailure{RowNumber: rowNum, Reason: err.Error()})
				logger.Warn("import row rejected", "row", rowNum, "error", err)
				c.flush(ctx, tr, logger)
				continue
			}
			if err := c.cards.Create(ctx, card); err != nil {
				return c.finalize(ctx, tr, logger, StatusFailed,
					fmt.Sprintf("storage write failed: %v", err), "", c.writeReport(j.ID, failures))
			}
			// Later rows see cards inserted earlier in the same job.
			existing = append(existing, card)
			tr.rowSucceeded()
		}

		c.flush(ctx, tr, logger)
	}

	snap := tr.Snapshot()
	reportURL := c.writeReport(j.ID, failures)

	if snap.TotalRows > 0 && snap.FailedCount == snap.TotalRows {
		return c.finalize(ctx, tr, logger, StatusFailed, "all rows failed", "", reportURL)
	}
	return c.finalize(ctx, tr, logger, StatusCompleted, "", "", reportURL)
}

// RunExport executes an export job into its sink stream.
func (c *Coordinator) RunExport(ctx context.Context, j *Job, sink SinkStream) error {
	tr, err := c.registry.claim(j.ID, NewSnapshot(j))
	if err != nil {
		return err
	}
	defer c.registry.release(j.ID)

	logger := c.logger.With("job_id", j.ID, "job_type", j.Type)

	cards, err := c.exportCards(ctx, j)
	if err != nil {
		tr.setTotal(0)
		if startErr := c.start(ctx, tr, logger); startErr != nil {
			return startErr
		}
		return c.finalize(ctx, tr, logger, StatusFailed,
			fmt.Sprintf("failed to read cards: %v", err), "", "")
	}

	tr.setTotal(len(cards))
	if err := c.start(ctx, tr, logger); err != nil {
		return err
	}

	deadline := c.clock.Now().Add(c.config.Timeout)

	for _, card := range cards {
		if err := ctx.Err(); err != nil {
			return c.finalize(ctx, tr, logger, StatusFailed,
				fmt.Sprintf("cancelled: %v", err), "", "")
		}
		if c.clock.Now().After(deadline) {
			return c.finalize(ctx, tr, logger, StatusTimeout, "deadline exceeded", "", "")
		}

		row := ExportRow{
			Front:   card.Front,
			Back:    card.Back,
			Box:     card.Box,
			DueDate: card.DueDate,
		}
		if err := sink.WriteRow(ctx, row); err != nil {
			return c.finalize(ctx, tr, logger, StatusFailed,
				fmt.Sprintf("sink write failed: %v", err), "", "")
		}
		tr.rowSucceeded()
		c.flush(ctx, tr, logger)
	}

	downloadURL, err := sink.Finalize(ctx)
	if err != nil {
		return c.finalize(ctx, tr, logger, StatusFailed,
			fmt.Sprintf("failed to finalize export: %v", err), "", "")
	}

	return c.finalize(ctx, tr, logger, StatusCompleted, "", downloadURL, "")
}

// exportCards fetches the cards an export job covers, applying its scope and
// optional deck filter.
func (c *Coordinator) exportCards(ctx context.Context, j *Job) ([]*domain.Card, error) {
	var (
		cards []*domain.Card
		err   error
	)
	if j.ExportScope == ExportDueOnly {
		cards, err = c.cards.ListDue(ctx, j.UserID, c.clock.Now())
	} else {
		cards, err = c.cards.ListByUser(ctx, j.UserID)
	}
	if err != nil {
		return nil, err
	}

	if j.DeckID == uuid.Nil {
		return cards, nil
	}

	filtered := cards[:0]
	for _, card := range cards {
		if card.DeckID == j.DeckID {
			filtered = append(filtered, card)
		}
	}
	return filtered, nil
}

// start commits the PENDING→RUNNING claim transition and persists it.
func (c *Coordinator) start(ctx context.Context, tr *tracker, logger *slog.Logger) error {
	if err := tr.transition(StatusRunning, "", "", "", c.clock.Now()); err != nil {
		return err
	}
	snap := tr.Snapshot()
	if err := c.jobs.UpdateSnapshot(ctx, snap); err != nil {
		logger.Error("failed to persist running snapshot", "error", err)
	}
	logger.Info("job started", "total_rows", snap.TotalRows)
	return nil
}

// flush persists the live snapshot every FlushEvery committed rows.
// Persistence failures are logged, not fatal: the live snapshot remains
// authoritative while the worker owns the job.
func (c *Coordinator) flush(ctx context.Context, tr *tracker, logger *slog.Logger) {
	snap := tr.Snapshot()
	if snap.ProcessedRows == 0 || snap.ProcessedRows%c.config.FlushEvery != 0 {
		return
	}
	if err := c.jobs.UpdateSnapshot(ctx, snap); err != nil {
		logger.Error("failed to persist progress snapshot",
			"processed_rows", snap.ProcessedRows,
			"error", err)
	}
}

// finalize commits the terminal transition in memory and persists it.
// The URLs land in the same atomic commit as the status change.
func (c *Coordinator) finalize(
	ctx context.Context,
	tr *tracker,
	logger *slog.Logger,
	status Status,
	message, downloadURL, errorReportURL string,
) error {
	if err := tr.transition(status, message, downloadURL, errorReportURL, c.clock.Now()); err != nil {
		return err
	}

	snap := tr.Snapshot()
	logger.Info("job finished",
		"status", snap.Status,
		"processed_rows", snap.ProcessedRows,
		"success_count", snap.SuccessCount,
		"skipped_count", snap.SkippedCount,
		"failed_count", snap.FailedCount,
		"message", snap.Message)

	// Persist with a fresh context so a cancelled job can still record its
	// terminal state.
	commitCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}

	if err := c.jobs.CommitTerminal(commitCtx, snap); err != nil {
		logger.Error("failed to commit terminal snapshot", "error", err)
		return err
	}
	return nil
}

// writeReport persists the error report for a job's row failures, returning
// its URL. Report failures are logged and swallowed: losing the report must
// not change the job outcome.
func (c *Coordinator) writeReport(jobID uuid.UUID, failures []RowFailure) string {
	if len(failures) == 0 || c.reports == nil {
		return ""
	}
	url, err := c.reports.WriteReport(context.Background(), jobID, failures)
	if err != nil {
		c.logger.Error("failed to write error report", "job_id", jobID, "error", err)
		return ""
	}
	return url
}
