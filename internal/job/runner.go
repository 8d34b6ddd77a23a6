package job

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// RunnerConfig holds configuration for the job runner.
type RunnerConfig struct {
	// WorkerCount determines how many jobs execute concurrently.
	WorkerCount int

	// QueueSize is the buffer size of the in-memory job queue.
	QueueSize int

	// BacklogSweepInterval is how often the runner retries submitting
	// backlogged jobs when the queue was full. Jobs in the backlog remain
	// PENDING; they are never rejected.
	BacklogSweepInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:          2,
		QueueSize:            64,
		BacklogSweepInterval: 5 * time.Second,
	}
}

// Runner owns the process-wide pool of job workers. Its lifecycle is
// explicit: Start on service init, Stop on shutdown. Stop cancels the
// lifecycle context, which running jobs observe at their next row boundary,
// and waits for every worker to finish committing.
type Runner struct {
	queue      *Queue
	config     RunnerConfig
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	mu      sync.Mutex
	backlog []RunnableTask
	started bool
}

// NewRunner creates a Runner with the given configuration.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	if config.BacklogSweepInterval <= 0 {
		config.BacklogSweepInterval = DefaultRunnerConfig().BacklogSweepInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      NewQueue(config.QueueSize, logger),
		config:     config,
		logger:     logger.With(slog.String("component", "job_runner")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Submit hands a task to the runner. If the queue is full the task moves to
// the backlog and is retried by the sweep; the job stays PENDING meanwhile.
// Submission is only refused once the runner is shutting down.
func (r *Runner) Submit(task RunnableTask) error {
	err := r.queue.Enqueue(task)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrQueueClosed) {
		return err
	}

	r.mu.Lock()
	r.backlog = append(r.backlog, task)
	backlogLen := len(r.backlog)
	r.mu.Unlock()

	r.logger.Warn("queue full, job moved to backlog",
		"job_id", task.JobID(),
		"backlog_len", backlogLen)
	return nil
}

// Start launches the worker pool and the backlog sweep.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.wg.Add(1)
	go r.backlogSweep()

	r.logger.Info("job runner started", "worker_count", r.config.WorkerCount)
}

// Stop shuts the runner down: no new submissions, running jobs are
// cancelled cooperatively, and Stop blocks until all workers have exited.
func (r *Runner) Stop() {
	r.queue.Close()
	r.cancelFunc()
	r.wg.Wait()
	r.logger.Info("job runner stopped")
}

// worker consumes tasks until the queue closes or the runner is cancelled.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	logger := r.logger.With("worker_id", id)
	logger.Debug("starting worker")

	for {
		select {
		case <-r.ctx.Done():
			logger.Debug("stopping worker")
			return

		case task, ok := <-r.queue.Channel():
			if !ok {
				logger.Debug("queue closed, stopping worker")
				return
			}
			r.runTask(task, logger)
		}
	}
}

// runTask executes a single job. Task errors are claim/commit failures; job
// outcomes themselves are recorded on the job record by the coordinator.
func (r *Runner) runTask(task RunnableTask, logger *slog.Logger) {
	logger = logger.With("job_id", task.JobID())
	logger.Info("processing job")

	if err := task.Run(r.ctx); err != nil {
		logger.Error("job execution failed", "error", err)
		return
	}
	logger.Info("job processed")
}

// backlogSweep periodically retries backlogged tasks while queue capacity
// is available.
func (r *Runner) backlogSweep() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.BacklogSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			r.drainBacklog()
		}
	}
}

func (r *Runner) drainBacklog() {
	r.mu.Lock()
	pending := r.backlog
	r.backlog = nil
	r.mu.Unlock()

	for i, task := range pending {
		if err := r.queue.Enqueue(task); err != nil {
			// Queue still full (or closing): keep the rest backlogged.
			r.mu.Lock()
			r.backlog = append(pending[i:], r.backlog...)
			r.mu.Unlock()
			return
		}
		r.logger.Info("requeued backlogged job", "job_id", task.JobID())
	}
}
