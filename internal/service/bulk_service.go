package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/job"
	"github.com/flashbox/flashbox-api/internal/platform/logger"
	"github.com/flashbox/flashbox-api/internal/store"
)

// JobSubmitter accepts runnable tasks for asynchronous execution.
// Satisfied by job.Runner.
type JobSubmitter interface {
	Submit(task job.RunnableTask) error
}

// BulkService provides the bulk import/export use cases. Submissions return
// immediately with the accepted job; execution happens asynchronously on the
// job runner and progress is observed through GetStatus.
type BulkService interface {
	// SubmitImport accepts an import job targeting the given deck and
	// schedules it for execution.
	//
	// Returns:
	//   - (*job.Job, nil): the accepted job in PENDING state
	//   - (nil, ErrDeckNotFound): if the target deck does not exist
	//   - (nil, ErrNotOwned): if the user does not own the target deck
	SubmitImport(ctx context.Context, userID, deckID uuid.UUID, policy job.DuplicatePolicy, source job.SourceStream) (*job.Job, error)

	// SubmitExport accepts an export job and schedules it for execution.
	// A nil deckID exports across all of the user's decks.
	SubmitExport(ctx context.Context, userID, deckID uuid.UUID, scope job.ExportScope, sink job.SinkStream) (*job.Job, error)

	// GetStatus returns the freshest progress snapshot for a job: the live
	// in-memory snapshot while a worker owns the job, the persisted one
	// otherwise.
	//
	// Returns:
	//   - (job.Snapshot, nil): the current snapshot
	//   - (job.Snapshot{}, ErrJobNotFound): if the job does not exist
	//   - (job.Snapshot{}, ErrNotOwned): if the user does not own the job
	GetStatus(ctx context.Context, userID, jobID uuid.UUID) (job.Snapshot, error)
}

// Verify interface compliance at compile time
var _ BulkService = (*bulkService)(nil)

type bulkService struct {
	decks       store.DeckStore
	jobs        job.Store
	coordinator *job.Coordinator
	submitter   JobSubmitter
	logger      *slog.Logger
}

// NewBulkService creates a BulkService.
func NewBulkService(
	decks store.DeckStore,
	jobs job.Store,
	coordinator *job.Coordinator,
	submitter JobSubmitter,
	log *slog.Logger,
) BulkService {
	if decks == nil {
		panic("decks store cannot be nil")
	}
	if jobs == nil {
		panic("jobs store cannot be nil")
	}
	if coordinator == nil {
		panic("coordinator cannot be nil")
	}
	if submitter == nil {
		panic("submitter cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &bulkService{
		decks:       decks,
		jobs:        jobs,
		coordinator: coordinator,
		submitter:   submitter,
		logger:      log.With(slog.String("component", "bulk_service")),
	}
}

// importTask adapts an import submission to job.RunnableTask.
type importTask struct {
	j           *job.Job
	source      job.SourceStream
	coordinator *job.Coordinator
}

func (t *importTask) JobID() uuid.UUID { return t.j.ID }

func (t *importTask) Run(ctx context.Context) error {
	return t.coordinator.RunImport(ctx, t.j, t.source)
}

// exportTask adapts an export submission to job.RunnableTask.
type exportTask struct {
	j           *job.Job
	sink        job.SinkStream
	coordinator *job.Coordinator
}

func (t *exportTask) JobID() uuid.UUID { return t.j.ID }

func (t *exportTask) Run(ctx context.Context) error {
	return t.coordinator.RunExport(ctx, t.j, t.sink)
}

// SubmitImport implements BulkService.SubmitImport.
func (s *bulkService) SubmitImport(
	ctx context.Context,
	userID, deckID uuid.UUID,
	policy job.DuplicatePolicy,
	source job.SourceStream,
) (*job.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.checkDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}

	j, err := job.NewImportJob(userID, deckID, policy)
	if err != nil {
		return nil, &ServiceError{Operation: "submit_import", Message: "invalid submission", Err: err}
	}

	if err := s.jobs.Create(ctx, j); err != nil {
		log.Error("failed to persist import job",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_import", Message: "failed to persist job", Err: err}
	}

	if err := s.submitter.Submit(&importTask{j: j, source: source, coordinator: s.coordinator}); err != nil {
		return nil, &ServiceError{Operation: "submit_import", Message: "failed to schedule job", Err: err}
	}

	log.Info("import job accepted",
		slog.String("job_id", j.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
		slog.Int("total_rows", source.Len()))
	return j, nil
}

// SubmitExport implements BulkService.SubmitExport.
func (s *bulkService) SubmitExport(
	ctx context.Context,
	userID, deckID uuid.UUID,
	scope job.ExportScope,
	sink job.SinkStream,
) (*job.Job, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if deckID != uuid.Nil {
		if err := s.checkDeck(ctx, userID, deckID); err != nil {
			return nil, err
		}
	}

	j, err := job.NewExportJob(userID, deckID, scope)
	if err != nil {
		return nil, &ServiceError{Operation: "submit_export", Message: "invalid submission", Err: err}
	}

	if err := s.jobs.Create(ctx, j); err != nil {
		log.Error("failed to persist export job",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_export", Message: "failed to persist job", Err: err}
	}

	if err := s.submitter.Submit(&exportTask{j: j, sink: sink, coordinator: s.coordinator}); err != nil {
		return nil, &ServiceError{Operation: "submit_export", Message: "failed to schedule job", Err: err}
	}

	log.Info("export job accepted",
		slog.String("job_id", j.ID.String()),
		slog.String("user_id", userID.String()),
		slog.String("scope", string(scope)))
	return j, nil
}

// GetStatus implements BulkService.GetStatus.
func (s *bulkService) GetStatus(ctx context.Context, userID, jobID uuid.UUID) (job.Snapshot, error) {
	// The live snapshot is fresher than the persisted one while a worker
	// owns the job.
	if snap, ok := s.coordinator.Registry().Snapshot(jobID); ok {
		if snap.UserID != userID {
			return job.Snapshot{}, ErrNotOwned
		}
		return snap, nil
	}

	snap, err := s.jobs.GetSnapshot(ctx, jobID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return job.Snapshot{}, ErrJobNotFound
		}
		return job.Snapshot{}, &ServiceError{Operation: "get_status", Message: "failed to load snapshot", Err: err}
	}
	if snap.UserID != userID {
		return job.Snapshot{}, ErrNotOwned
	}
	return snap, nil
}

// checkDeck verifies that the deck exists and belongs to the user.
func (s *bulkService) checkDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	deck, err := s.decks.GetByID(ctx, deckID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return ErrDeckNotFound
		}
		return &ServiceError{Operation: "submit_job", Message: "failed to load deck", Err: err}
	}
	if deck.UserID != userID {
		return ErrNotOwned
	}
	return nil
}
