package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/job"
	"github.com/flashbox/flashbox-api/internal/platform/logger"
	"github.com/flashbox/flashbox-api/internal/store"
)

// PostgresJobStore implements the job.Store interface using a PostgreSQL
// database as the storage backend. A job and its progress snapshot share one
// row; snapshot writes never touch the immutable submission columns.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresJobStore creates a new PostgreSQL implementation of the job.Store interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// Ensure PostgresJobStore implements job.Store interface
var _ job.Store = (*PostgresJobStore)(nil)

// terminalStatuses is the SQL predicate for terminal job states.
const terminalStatuses = `('completed', 'failed', 'timeout')`

// Create implements job.Store.Create.
// The row starts in PENDING state with zeroed progress counters.
func (s *PostgresJobStore) Create(ctx context.Context, j *job.Job) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := j.Validate(); err != nil {
		log.Warn("job validation failed during create",
			slog.String("error", err.Error()),
			slog.String("job_id", j.ID.String()))
		return err
	}

	query := `
		INSERT INTO jobs (id, user_id, type, deck_id, duplicate_policy, export_scope, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		j.ID,
		j.UserID,
		j.Type,
		j.DeckID,
		string(j.DuplicatePolicy),
		string(j.ExportScope),
		job.StatusPending,
		j.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create job",
			slog.String("error", err.Error()),
			slog.String("job_id", j.ID.String()))
		return MapError(err)
	}

	log.Debug("job created",
		slog.String("job_id", j.ID.String()),
		slog.String("job_type", string(j.Type)))
	return nil
}

// UpdateSnapshot implements job.Store.UpdateSnapshot.
// Terminal rows are never overwritten; a late progress flush from a worker
// that lost a race with the terminal commit is silently dropped.
func (s *PostgresJobStore) UpdateSnapshot(ctx context.Context, snap job.Snapshot) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE jobs
		SET status = $2, total_rows = $3, processed_rows = $4, success_count = $5,
			skipped_count = $6, failed_count = $7, message = $8
		WHERE id = $1 AND status NOT IN ` + terminalStatuses + `
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		snap.JobID,
		snap.Status,
		snap.TotalRows,
		snap.ProcessedRows,
		snap.SuccessCount,
		snap.SkippedCount,
		snap.FailedCount,
		snap.Message,
	)
	if err != nil {
		log.Error("failed to update job snapshot",
			slog.String("error", err.Error()),
			slog.String("job_id", snap.JobID.String()))
		return MapError(err)
	}
	return nil
}

// CommitTerminal implements job.Store.CommitTerminal.
// The guard on non-terminal status makes the commit atomic: once a terminal
// state is recorded, any further commit returns job.ErrInvalidTransition.
func (s *PostgresJobStore) CommitTerminal(ctx context.Context, snap job.Snapshot) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !snap.Status.Terminal() {
		return fmt.Errorf("%w: %s is not terminal", job.ErrInvalidTransition, snap.Status)
	}

	query := `
		UPDATE jobs
		SET status = $2, total_rows = $3, processed_rows = $4, success_count = $5,
			skipped_count = $6, failed_count = $7, message = $8,
			download_url = $9, error_report_url = $10, completed_at = $11
		WHERE id = $1 AND status NOT IN ` + terminalStatuses + `
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		snap.JobID,
		snap.Status,
		snap.TotalRows,
		snap.ProcessedRows,
		snap.SuccessCount,
		snap.SkippedCount,
		snap.FailedCount,
		snap.Message,
		snap.DownloadURL,
		snap.ErrorReportURL,
		snap.CompletedAt,
	)
	if err != nil {
		log.Error("failed to commit terminal snapshot",
			slog.String("error", err.Error()),
			slog.String("job_id", snap.JobID.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing job from an already-terminal one.
		var status job.Status
		err := s.db.QueryRowContext(ctx, `SELECT status FROM jobs WHERE id = $1`, snap.JobID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return store.ErrJobNotFound
		}
		if err != nil {
			return MapError(err)
		}
		return fmt.Errorf("%w: job already %s", job.ErrInvalidTransition, status)
	}

	log.Info("terminal snapshot committed",
		slog.String("job_id", snap.JobID.String()),
		slog.String("status", string(snap.Status)))
	return nil
}

// scanJob reads one job submission row.
func scanJob(scanner interface{ Scan(dest ...any) error }) (*job.Job, error) {
	var (
		j      job.Job
		policy string
		scope  string
	)
	err := scanner.Scan(&j.ID, &j.UserID, &j.Type, &j.DeckID, &policy, &scope, &j.CreatedAt)
	if err != nil {
		return nil, err
	}
	j.DuplicatePolicy = job.DuplicatePolicy(policy)
	j.ExportScope = job.ExportScope(scope)
	return &j, nil
}

// GetJob implements job.Store.GetJob.
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) GetJob(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	query := `
		SELECT id, user_id, type, deck_id, duplicate_policy, export_scope, created_at
		FROM jobs
		WHERE id = $1
	`
	j, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, MapError(err)
	}
	return j, nil
}

// GetSnapshot implements job.Store.GetSnapshot.
// Returns store.ErrJobNotFound if the job does not exist.
func (s *PostgresJobStore) GetSnapshot(ctx context.Context, id uuid.UUID) (job.Snapshot, error) {
	query := `
		SELECT id, user_id, type, status, total_rows, processed_rows, success_count,
			skipped_count, failed_count, message, download_url, error_report_url,
			created_at, completed_at
		FROM jobs
		WHERE id = $1
	`
	var snap job.Snapshot
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&snap.JobID,
		&snap.UserID,
		&snap.Type,
		&snap.Status,
		&snap.TotalRows,
		&snap.ProcessedRows,
		&snap.SuccessCount,
		&snap.SkippedCount,
		&snap.FailedCount,
		&snap.Message,
		&snap.DownloadURL,
		&snap.ErrorReportURL,
		&snap.CreatedAt,
		&snap.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return job.Snapshot{}, store.ErrJobNotFound
		}
		return job.Snapshot{}, MapError(err)
	}
	return snap, nil
}

// ListInterrupted implements job.Store.ListInterrupted.
func (s *PostgresJobStore) ListInterrupted(ctx context.Context) ([]job.Snapshot, error) {
	query := `
		SELECT id, user_id, type, status, total_rows, processed_rows, success_count,
			skipped_count, failed_count, message, download_url, error_report_url,
			created_at, completed_at
		FROM jobs
		WHERE status NOT IN ` + terminalStatuses + `
		ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var interrupted []job.Snapshot
	for rows.Next() {
		var snap job.Snapshot
		err := rows.Scan(
			&snap.JobID,
			&snap.UserID,
			&snap.Type,
			&snap.Status,
			&snap.TotalRows,
			&snap.ProcessedRows,
			&snap.SuccessCount,
			&snap.SkippedCount,
			&snap.FailedCount,
			&snap.Message,
			&snap.DownloadURL,
			&snap.ErrorReportURL,
			&snap.CreatedAt,
			&snap.CompletedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		interrupted = append(interrupted, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return interrupted, nil
}

// WithTx implements job.Store.WithTx.
func (s *PostgresJobStore) WithTx(tx *sql.Tx) job.Store {
	return &PostgresJobStore{
		db:     tx,
		logger: s.logger,
	}
}
