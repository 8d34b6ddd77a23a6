package job

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// tracker holds the live progress of a single job. The worker that owns the
// job is the only writer; it publishes a fresh immutable Snapshot through an
// atomic pointer after every committed row. Readers load the pointer and get
// a copy, so a poll never blocks the worker and never observes a state
// earlier than the last fully committed row.
type tracker struct {
	snap atomic.Pointer[Snapshot]
}

func newTracker(initial Snapshot) *tracker {
	t := &tracker{}
	t.snap.Store(&initial)
	return t
}

// Snapshot returns the last committed progress by value.
func (t *tracker) Snapshot() Snapshot {
	return *t.snap.Load()
}

// setTotal records the total row count. Worker-only.
func (t *tracker) setTotal(total int) {
	s := t.Snapshot()
	s.TotalRows = total
	t.snap.Store(&s)
}

// rowSucceeded commits one successfully applied row. Worker-only.
func (t *tracker) rowSucceeded() {
	s := t.Snapshot()
	s.ProcessedRows++
	s.SuccessCount++
	t.snap.Store(&s)
}

// rowSkipped commits one row skipped by duplicate policy. Worker-only.
func (t *tracker) rowSkipped() {
	s := t.Snapshot()
	s.ProcessedRows++
	s.SkippedCount++
	t.snap.Store(&s)
}

// rowFailed commits one failed row. Worker-only.
func (t *tracker) rowFailed() {
	s := t.Snapshot()
	s.ProcessedRows++
	s.FailedCount++
	t.snap.Store(&s)
}

// transition moves the job to the given status as a single atomic commit.
// URLs, when non-empty, are set with the same commit so a reader can never
// observe a terminal state without them. Worker-only.
func (t *tracker) transition(next Status, message, downloadURL, errorReportURL string, now time.Time) error {
	s, err := t.Snapshot().withTransition(next, message, now)
	if err != nil {
		return err
	}
	if downloadURL != "" {
		s.DownloadURL = downloadURL
	}
	if errorReportURL != "" {
		s.ErrorReportURL = errorReportURL
	}
	t.snap.Store(&s)
	return nil
}

// Registry tracks the trackers of live jobs and enforces the single-owner
// invariant: a job id can be claimed by at most one worker at a time.
type Registry struct {
	mu   sync.RWMutex
	live map[uuid.UUID]*tracker
}

// NewRegistry creates an empty job registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[uuid.UUID]*tracker)}
}

// claim registers a tracker for the job id. Returns ErrAlreadyClaimed if a
// worker already owns it.
func (r *Registry) claim(id uuid.UUID, initial Snapshot) (*tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.live[id]; ok {
		return nil, ErrAlreadyClaimed
	}

	t := newTracker(initial)
	r.live[id] = t
	return t, nil
}

// release removes the job from the live set once its terminal snapshot has
// been persisted.
func (r *Registry) release(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.live, id)
}

// Snapshot returns the live progress of the job, if a worker currently
// owns it.
func (r *Registry) Snapshot(id uuid.UUID) (Snapshot, bool) {
	r.mu.RLock()
	t, ok := r.live[id]
	r.mu.RUnlock()

	if !ok {
		return Snapshot{}, false
	}
	return t.Snapshot(), true
}
