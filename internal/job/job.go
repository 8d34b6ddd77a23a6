package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type identifies the kind of bulk job.
type Type string

// Possible job types
const (
	TypeImport Type = "import"
	TypeExport Type = "export"
)

// Status represents the current state of a bulk job.
type Status string

// Possible job status values. Pending and Running are non-terminal;
// Completed, Failed, and Timeout are terminal and immutable once reached.
const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusTimeout   Status = "timeout"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusTimeout:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the state machine allows moving from s to next.
// The only legal moves are PENDING→RUNNING and RUNNING→{COMPLETED,FAILED,TIMEOUT}.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusRunning
	case StatusRunning:
		return next.Terminal()
	default:
		return false
	}
}

// DuplicatePolicy governs import behavior when an incoming row matches an
// existing card's front text.
type DuplicatePolicy string

// Possible duplicate policy values
const (
	DuplicateSkip     DuplicatePolicy = "skip"
	DuplicateReplace  DuplicatePolicy = "replace"
	DuplicateKeepBoth DuplicatePolicy = "keep_both"
)

// ExportScope selects which cards an export job includes.
type ExportScope string

// Possible export scope values
const (
	ExportAll     ExportScope = "all"
	ExportDueOnly ExportScope = "due_only"
)

// Job validation errors
var (
	ErrJobIDEmpty     = errors.New("job ID cannot be empty")
	ErrJobUserIDEmpty = errors.New("job user ID cannot be empty")
	ErrInvalidType    = errors.New("invalid job type")
	ErrInvalidPolicy  = errors.New("invalid duplicate policy")
	ErrInvalidScope   = errors.New("invalid export scope")
)

// Job is an asynchronous bulk import or export owned by a single user.
// Its mutable progress lives in a Snapshot maintained by the worker that
// claims it; the Job itself carries the immutable submission parameters.
type Job struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Type   Type      `json:"type"`

	// DeckID is the target deck for imports and the source deck for
	// deck-scoped exports.
	DeckID uuid.UUID `json:"deck_id"`

	// DuplicatePolicy applies to import jobs only.
	DuplicatePolicy DuplicatePolicy `json:"duplicate_policy,omitempty"`

	// ExportScope applies to export jobs only.
	ExportScope ExportScope `json:"export_scope,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewImportJob creates an import job for the given user and target deck.
func NewImportJob(userID, deckID uuid.UUID, policy DuplicatePolicy) (*Job, error) {
	j := &Job{
		ID:              uuid.New(),
		UserID:          userID,
		Type:            TypeImport,
		DeckID:          deckID,
		DuplicatePolicy: policy,
		CreatedAt:       time.Now().UTC(),
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// NewExportJob creates an export job for the given user and deck.
func NewExportJob(userID, deckID uuid.UUID, scope ExportScope) (*Job, error) {
	j := &Job{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        TypeExport,
		DeckID:      deckID,
		ExportScope: scope,
		CreatedAt:   time.Now().UTC(),
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// Validate checks if the Job has valid data.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrJobIDEmpty
	}
	if j.UserID == uuid.Nil {
		return ErrJobUserIDEmpty
	}

	switch j.Type {
	case TypeImport:
		switch j.DuplicatePolicy {
		case DuplicateSkip, DuplicateReplace, DuplicateKeepBoth:
		default:
			return ErrInvalidPolicy
		}
	case TypeExport:
		switch j.ExportScope {
		case ExportAll, ExportDueOnly:
		default:
			return ErrInvalidScope
		}
	default:
		return ErrInvalidType
	}

	return nil
}

// Snapshot is an immutable view of a job's progress at a point in time.
// Pollers always receive a Snapshot by value; the worker that owns the job
// publishes a fresh one after every committed row.
type Snapshot struct {
	JobID  uuid.UUID `json:"job_id"`
	UserID uuid.UUID `json:"user_id"`
	Type   Type      `json:"type"`
	Status Status    `json:"status"`

	TotalRows     int `json:"total_rows"`
	ProcessedRows int `json:"processed_rows"`
	SuccessCount  int `json:"success_count"`
	SkippedCount  int `json:"skipped_count"`
	FailedCount   int `json:"failed_count"`

	// Message carries the human-readable reason for FAILED/TIMEOUT states.
	Message string `json:"message,omitempty"`

	// DownloadURL is populated for completed exports.
	DownloadURL string `json:"download_url,omitempty"`

	// ErrorReportURL is populated for imports that had row failures.
	ErrorReportURL string `json:"error_report_url,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewSnapshot creates the initial PENDING snapshot for a job.
func NewSnapshot(j *Job) Snapshot {
	return Snapshot{
		JobID:     j.ID,
		UserID:    j.UserID,
		Type:      j.Type,
		Status:    StatusPending,
		CreatedAt: j.CreatedAt,
	}
}

// Progress returns the percentage of processed rows, rounded down.
// A terminal job with no rows reports 100.
func (s Snapshot) Progress() int {
	if s.TotalRows <= 0 {
		if s.Status.Terminal() {
			return 100
		}
		return 0
	}
	return s.ProcessedRows * 100 / s.TotalRows
}

// Abandon returns the terminal FAILED snapshot for a job whose owning
// process died before finishing it, preserving any partial progress the
// process flushed. A PENDING snapshot is walked through RUNNING so the
// transition rules stay the single source of truth.
func (s Snapshot) Abandon(message string, now time.Time) (Snapshot, error) {
	if s.Status == StatusPending {
		running, err := s.withTransition(StatusRunning, "", now)
		if err != nil {
			return s, err
		}
		s = running
	}
	return s.withTransition(StatusFailed, message, now)
}

// withTransition returns a copy of the snapshot moved to the given status,
// or an error if the state machine forbids the move. Terminal transitions
// stamp CompletedAt.
func (s Snapshot) withTransition(next Status, message string, now time.Time) (Snapshot, error) {
	if !s.Status.CanTransition(next) {
		return s, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, next)
	}

	out := s
	out.Status = next
	out.Message = message
	if next.Terminal() {
		completed := now
		out.CompletedAt = &completed
	}
	return out, nil
}
