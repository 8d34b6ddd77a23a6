package job

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// RunnableTask is a unit of executable job work: a claimed job bound to its
// source or sink stream.
type RunnableTask interface {
	// JobID returns the id of the job this task executes.
	JobID() uuid.UUID

	// Run executes the job to a terminal state. The context is the runner's
	// lifecycle context; cancellation is observed at row boundaries.
	Run(ctx context.Context) error
}

// Queue is a buffered job queue consumed by the runner's workers.
type Queue struct {
	tasks  chan RunnableTask
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewQueue creates a job queue with the specified buffer size.
func NewQueue(size int, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		tasks:  make(chan RunnableTask, size),
		logger: logger.With(slog.String("component", "job_queue")),
	}
}

// Enqueue adds a task to the queue for processing.
// Returns ErrQueueFull when the buffer is exhausted and ErrQueueClosed after
// Close; the caller decides what to do with the overflow.
func (q *Queue) Enqueue(task RunnableTask) error {
	// The mutex is held across the send: Close closes the channel under
	// the same lock, so a racing Enqueue can never send on a closed
	// channel. The send cannot block thanks to the default case.
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.tasks <- task:
		q.logger.Debug("job enqueued",
			"job_id", task.JobID(),
			"queue_len", len(q.tasks),
			"queue_cap", cap(q.tasks))
		return nil
	default:
		return fmt.Errorf("%w: queue capacity %d reached", ErrQueueFull, cap(q.tasks))
	}
}

// Close closes the queue, preventing further submission.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.tasks)
		q.logger.Info("job queue closed")
	}
}

// Channel returns a read-only channel for consuming tasks.
func (q *Queue) Channel() <-chan RunnableTask {
	return q.tasks
}
