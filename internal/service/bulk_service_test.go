package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/job"
	"github.com/flashbox/flashbox-api/internal/platform/clock"
)

// syncSubmitter runs submitted tasks inline, making job completion
// deterministic in tests.
type syncSubmitter struct {
	submitted int
}

func (s *syncSubmitter) Submit(task job.RunnableTask) error {
	s.submitted++
	return task.Run(context.Background())
}

type bulkFixture struct {
	cards     *memCardStore
	decks     *memDeckStore
	jobs      *job.MockStore
	submitter *syncSubmitter
	svc       BulkService
}

func newBulkFixture(t *testing.T) *bulkFixture {
	t.Helper()
	cards := newMemCardStore()
	decks := newMemDeckStore()
	jobs := job.NewMockStore()
	coordinator := job.NewCoordinator(cards, jobs, nil, job.NewRegistry(),
		clock.SystemClock{}, job.DefaultCoordinatorConfig(), nil)
	submitter := &syncSubmitter{}

	return &bulkFixture{
		cards:     cards,
		decks:     decks,
		jobs:      jobs,
		submitter: submitter,
		svc:       NewBulkService(decks, jobs, coordinator, submitter, nil),
	}
}

func (f *bulkFixture) seedDeck(t *testing.T, userID uuid.UUID) *domain.Deck {
	t.Helper()
	deck, err := domain.NewDeck(userID, "Spanish vocab")
	require.NoError(t, err)
	require.NoError(t, f.decks.Create(context.Background(), deck))
	return deck
}

func TestSubmitImport(t *testing.T) {
	t.Parallel()

	f := newBulkFixture(t)
	userID := uuid.New()
	deck := f.seedDeck(t, userID)

	source := job.NewSliceSource([]job.Row{
		{Front: "hola", Back: "hello"},
		{Front: "adiós", Back: "goodbye"},
	})

	j, err := f.svc.SubmitImport(context.Background(), userID, deck.ID, job.DuplicateSkip, source)
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, job.TypeImport, j.Type)
	assert.Equal(t, 1, f.submitter.submitted)

	snap, err := f.svc.GetStatus(context.Background(), userID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, snap.Status)
	assert.Equal(t, 2, snap.SuccessCount)

	cards, err := f.cards.ListByDeck(context.Background(), deck.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestSubmitImportDeckChecks(t *testing.T) {
	t.Parallel()

	f := newBulkFixture(t)
	owner := uuid.New()
	deck := f.seedDeck(t, owner)
	source := job.NewSliceSource(nil)

	t.Run("deck not found", func(t *testing.T) {
		_, err := f.svc.SubmitImport(context.Background(), owner, uuid.New(), job.DuplicateSkip, source)
		assert.ErrorIs(t, err, ErrDeckNotFound)
	})

	t.Run("deck not owned", func(t *testing.T) {
		_, err := f.svc.SubmitImport(context.Background(), uuid.New(), deck.ID, job.DuplicateSkip, source)
		assert.ErrorIs(t, err, ErrNotOwned)
	})

	t.Run("nothing scheduled on rejection", func(t *testing.T) {
		assert.Zero(t, f.submitter.submitted)
	})
}

func TestSubmitExport(t *testing.T) {
	t.Parallel()

	f := newBulkFixture(t)
	userID := uuid.New()
	deck := f.seedDeck(t, userID)

	card, err := domain.NewCard(userID, deck.ID, "hola", "hello")
	require.NoError(t, err)
	require.NoError(t, f.cards.Create(context.Background(), card))

	var buf bytes.Buffer
	sink := job.NewCSVSink(&buf, "https://files/export.csv")

	j, err := f.svc.SubmitExport(context.Background(), userID, uuid.Nil, job.ExportAll, sink)
	require.NoError(t, err)

	snap, err := f.svc.GetStatus(context.Background(), userID, j.ID)
	require.NoError(t, err)
	assert.Equal(t, job.StatusCompleted, snap.Status)
	assert.Equal(t, "https://files/export.csv", snap.DownloadURL)
	assert.Contains(t, buf.String(), "hola")
}

func TestGetStatusErrors(t *testing.T) {
	t.Parallel()

	f := newBulkFixture(t)
	userID := uuid.New()
	deck := f.seedDeck(t, userID)

	j, err := f.svc.SubmitImport(context.Background(), userID, deck.ID, job.DuplicateSkip,
		job.NewSliceSource([]job.Row{{Front: "a", Back: "b"}}))
	require.NoError(t, err)

	t.Run("unknown job", func(t *testing.T) {
		_, err := f.svc.GetStatus(context.Background(), userID, uuid.New())
		assert.ErrorIs(t, err, ErrJobNotFound)
	})

	t.Run("not owned", func(t *testing.T) {
		_, err := f.svc.GetStatus(context.Background(), uuid.New(), j.ID)
		assert.ErrorIs(t, err, ErrNotOwned)
	})
}
