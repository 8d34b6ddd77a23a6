package job

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// Store defines the interface for persisting jobs and their progress
// snapshots.
type Store interface {
	// Create persists a new job together with its initial PENDING snapshot.
	Create(ctx context.Context, j *Job) error

	// UpdateSnapshot replaces the persisted progress snapshot of a
	// non-terminal job.
	UpdateSnapshot(ctx context.Context, snap Snapshot) error

	// CommitTerminal atomically writes a terminal snapshot. The commit is
	// rejected once a terminal state has been recorded: terminal states are
	// immutable.
	CommitTerminal(ctx context.Context, snap Snapshot) error

	// GetJob retrieves a job's submission parameters by id.
	// Returns store.ErrJobNotFound if the job does not exist.
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)

	// GetSnapshot retrieves the last persisted progress snapshot.
	// Returns store.ErrJobNotFound if the job does not exist.
	GetSnapshot(ctx context.Context, id uuid.UUID) (Snapshot, error)

	// ListInterrupted retrieves the persisted snapshots of non-terminal
	// jobs (PENDING or RUNNING), oldest first. Used at startup to recover
	// jobs the previous process left unfinished.
	ListInterrupted(ctx context.Context) ([]Snapshot, error)

	// WithTx returns a new Store instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) Store
}
