package job

import "errors"

// Common job errors
var (
	// ErrInvalidRow is returned for an import row whose front or back is
	// blank after trimming or exceeds the card side limit. Row-scoped: the
	// row is counted as failed and the job continues.
	ErrInvalidRow = errors.New("invalid row")

	// ErrInvalidTransition is returned when a status change violates the
	// job state machine (e.g. leaving a terminal state).
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrAlreadyClaimed is returned when a worker tries to claim a job that
	// another worker already owns.
	ErrAlreadyClaimed = errors.New("job already claimed by another worker")

	// ErrQueueClosed is returned when submitting to a closed queue.
	ErrQueueClosed = errors.New("job queue is closed")

	// ErrQueueFull is returned by the queue when its buffer is exhausted.
	// The runner keeps such jobs pending instead of rejecting them.
	ErrQueueFull = errors.New("job queue is full")

	// ErrSourceUnreadable is returned when the import source stream fails
	// mid-job. Job-fatal: the job ends as FAILED.
	ErrSourceUnreadable = errors.New("source stream unreadable")
)
