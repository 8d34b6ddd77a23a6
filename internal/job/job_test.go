package job

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	t.Parallel()

	all := []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusTimeout}

	allowed := map[Status]map[Status]bool{
		StatusPending: {StatusRunning: true},
		StatusRunning: {StatusCompleted: true, StatusFailed: true, StatusTimeout: true},
	}

	for _, from := range all {
		for _, to := range all {
			got := from.CanTransition(to)
			want := allowed[from][to]
			if got != want {
				t.Errorf("%s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
	assert.True(t, StatusTimeout.Terminal())
}

func TestJobValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid import job", func(t *testing.T) {
		j, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
		require.NoError(t, err)
		assert.Equal(t, TypeImport, j.Type)
		assert.NotEqual(t, uuid.Nil, j.ID)
	})

	t.Run("import requires a known policy", func(t *testing.T) {
		_, err := NewImportJob(uuid.New(), uuid.New(), "merge")
		assert.ErrorIs(t, err, ErrInvalidPolicy)
	})

	t.Run("valid export job", func(t *testing.T) {
		j, err := NewExportJob(uuid.New(), uuid.Nil, ExportDueOnly)
		require.NoError(t, err)
		assert.Equal(t, TypeExport, j.Type)
	})

	t.Run("export requires a known scope", func(t *testing.T) {
		_, err := NewExportJob(uuid.New(), uuid.Nil, "everything")
		assert.ErrorIs(t, err, ErrInvalidScope)
	})

	t.Run("user id required", func(t *testing.T) {
		_, err := NewImportJob(uuid.Nil, uuid.New(), DuplicateSkip)
		assert.ErrorIs(t, err, ErrJobUserIDEmpty)
	})
}

func TestSnapshotProgress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name      string
		total     int
		processed int
		status    Status
		expected  int
	}{
		{name: "no rows pending", total: 0, processed: 0, status: StatusPending, expected: 0},
		{name: "no rows completed", total: 0, processed: 0, status: StatusCompleted, expected: 100},
		{name: "halfway", total: 200, processed: 100, status: StatusRunning, expected: 50},
		{name: "rounds down", total: 3, processed: 1, status: StatusRunning, expected: 33},
		{name: "all processed", total: 50, processed: 50, status: StatusCompleted, expected: 100},
		{name: "partial at timeout", total: 1000, processed: 400, status: StatusTimeout, expected: 40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			snap := Snapshot{
				TotalRows:     tc.total,
				ProcessedRows: tc.processed,
				Status:        tc.status,
			}
			assert.Equal(t, tc.expected, snap.Progress())
		})
	}
}

func TestTrackerTerminalIsImmutable(t *testing.T) {
	t.Parallel()

	j, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
	require.NoError(t, err)

	tr := newTracker(NewSnapshot(j))
	now := time.Now().UTC()

	require.NoError(t, tr.transition(StatusRunning, "", "", "", now))
	require.NoError(t, tr.transition(StatusCompleted, "", "", "", now))

	assert.ErrorIs(t, tr.transition(StatusFailed, "late failure", "", "", now), ErrInvalidTransition)
	assert.ErrorIs(t, tr.transition(StatusRunning, "", "", "", now), ErrInvalidTransition)

	snap := tr.Snapshot()
	assert.Equal(t, StatusCompleted, snap.Status)
	require.NotNil(t, snap.CompletedAt)
}

func TestTrackerURLsLandWithTerminalCommit(t *testing.T) {
	t.Parallel()

	j, err := NewExportJob(uuid.New(), uuid.Nil, ExportAll)
	require.NoError(t, err)

	tr := newTracker(NewSnapshot(j))
	now := time.Now().UTC()

	require.NoError(t, tr.transition(StatusRunning, "", "", "", now))
	require.NoError(t, tr.transition(StatusCompleted, "", "https://files/export.csv", "", now))

	snap := tr.Snapshot()
	assert.Equal(t, "https://files/export.csv", snap.DownloadURL)
	assert.Equal(t, StatusCompleted, snap.Status)
}

func TestRegistrySingleOwner(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	j, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
	require.NoError(t, err)

	_, err = registry.claim(j.ID, NewSnapshot(j))
	require.NoError(t, err)

	_, err = registry.claim(j.ID, NewSnapshot(j))
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	registry.release(j.ID)

	_, err = registry.claim(j.ID, NewSnapshot(j))
	assert.NoError(t, err)
}

func TestRegistrySnapshotCopyOnRead(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	j, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
	require.NoError(t, err)

	tr, err := registry.claim(j.ID, NewSnapshot(j))
	require.NoError(t, err)
	tr.setTotal(10)

	snap, ok := registry.Snapshot(j.ID)
	require.True(t, ok)
	assert.Equal(t, 10, snap.TotalRows)
	assert.Equal(t, 0, snap.ProcessedRows)

	// A reader's copy never changes after later worker commits.
	tr.rowSucceeded()
	assert.Equal(t, 0, snap.ProcessedRows)

	fresh, ok := registry.Snapshot(j.ID)
	require.True(t, ok)
	assert.Equal(t, 1, fresh.ProcessedRows)

	_, ok = registry.Snapshot(uuid.New())
	assert.False(t, ok)
}

func TestSnapshotAbandon(t *testing.T) {
	t.Parallel()

	j, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
	require.NoError(t, err)

	now := time.Now().UTC()
	snap, err := NewSnapshot(j).Abandon("interrupted by server restart", now)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, "interrupted by server restart", snap.Message)
	require.NotNil(t, snap.CompletedAt)
	assert.Equal(t, now, *snap.CompletedAt)

	// Terminal snapshots cannot be abandoned again.
	_, err = snap.Abandon("twice", now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSnapshotAbandonRunningKeepsProgress(t *testing.T) {
	t.Parallel()

	j, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
	require.NoError(t, err)

	now := time.Now().UTC()
	tr := newTracker(NewSnapshot(j))
	tr.setTotal(100)
	require.NoError(t, tr.transition(StatusRunning, "", "", "", now))
	for i := 0; i < 40; i++ {
		tr.rowSucceeded()
	}

	snap, err := tr.Snapshot().Abandon("interrupted by server restart", now)
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, snap.Status)
	assert.Equal(t, 40, snap.ProcessedRows)
	assert.Equal(t, 40, snap.SuccessCount)
	assert.Equal(t, 100, snap.TotalRows)
	require.NotNil(t, snap.CompletedAt)
}

func TestInterruptedJobRecovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mock := NewMockStore()
	now := time.Now().UTC()

	pending, err := NewImportJob(uuid.New(), uuid.New(), DuplicateSkip)
	require.NoError(t, err)
	require.NoError(t, mock.Create(ctx, pending))

	// A worker flushed a mid-run snapshot before its process died.
	running, err := NewImportJob(uuid.New(), uuid.New(), DuplicateReplace)
	require.NoError(t, err)
	require.NoError(t, mock.Create(ctx, running))
	tr := newTracker(NewSnapshot(running))
	tr.setTotal(10)
	require.NoError(t, tr.transition(StatusRunning, "", "", "", now))
	tr.rowSucceeded()
	require.NoError(t, mock.UpdateSnapshot(ctx, tr.Snapshot()))

	done, err := NewExportJob(uuid.New(), uuid.Nil, ExportAll)
	require.NoError(t, err)
	require.NoError(t, mock.Create(ctx, done))
	doneSnap, err := NewSnapshot(done).Abandon("cancelled", now)
	require.NoError(t, err)
	require.NoError(t, mock.CommitTerminal(ctx, doneSnap))

	// Both non-terminal jobs surface; the terminal one does not.
	interrupted, err := mock.ListInterrupted(ctx)
	require.NoError(t, err)
	require.Len(t, interrupted, 2)

	for _, snap := range interrupted {
		failed, err := snap.Abandon("interrupted by server restart", now)
		require.NoError(t, err)
		require.NoError(t, mock.CommitTerminal(ctx, failed))
	}

	got, err := mock.GetSnapshot(ctx, running.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, 1, got.ProcessedRows)
	assert.Equal(t, "interrupted by server restart", got.Message)

	remaining, err := mock.ListInterrupted(ctx)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
