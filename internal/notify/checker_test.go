package notify

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/platform/clock"
)

type stubSettingsSource struct {
	settings []*domain.SrsSettings
	err      error
}

func (s *stubSettingsSource) ListNotificationEnabled(_ context.Context) ([]*domain.SrsSettings, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.settings, nil
}

type recordingSink struct {
	notified []uuid.UUID
}

func (s *recordingSink) Notify(_ context.Context, userID uuid.UUID, _ time.Time) error {
	s.notified = append(s.notified, userID)
	return nil
}

func TestCheckerSweepFiresElapsedSlot(t *testing.T) {
	t.Parallel()

	// Wednesday 08:59.
	start := time.Date(2025, 6, 11, 8, 59, 0, 0, time.UTC)
	clk := clock.NewFixed(start)

	settings := enabledSettings(t, domain.TimeOfDay{Hour: 9, Minute: 0}, time.Wednesday)
	source := &stubSettingsSource{settings: []*domain.SrsSettings{settings}}
	sink := &recordingSink{}

	checker := NewChecker(source, sink, clk, time.Minute, slog.Default())

	// Slot has not elapsed yet.
	clk.Advance(30 * time.Second)
	checker.Sweep(context.Background())
	assert.Empty(t, sink.notified)

	// Crossing 09:00 fires the slot once.
	clk.Advance(2 * time.Minute)
	checker.Sweep(context.Background())
	require.Len(t, sink.notified, 1)
	assert.Equal(t, settings.UserID, sink.notified[0])

	// A later sweep on the same day must not fire the slot again.
	clk.Advance(5 * time.Minute)
	checker.Sweep(context.Background())
	assert.Len(t, sink.notified, 1)
}

func TestCheckerRetriesSlotAfterListFailure(t *testing.T) {
	t.Parallel()

	// Wednesday 08:59.
	start := time.Date(2025, 6, 11, 8, 59, 0, 0, time.UTC)
	clk := clock.NewFixed(start)

	settings := enabledSettings(t, domain.TimeOfDay{Hour: 9, Minute: 0}, time.Wednesday)
	source := &stubSettingsSource{settings: []*domain.SrsSettings{settings}}
	sink := &recordingSink{}

	checker := NewChecker(source, sink, clk, time.Minute, slog.Default())

	// The sweep that would have fired the 09:00 slot fails to list users.
	source.err = errors.New("connection refused")
	clk.Advance(2 * time.Minute)
	checker.Sweep(context.Background())
	assert.Empty(t, sink.notified)

	// The window stays open, so the next successful sweep fires the slot.
	source.err = nil
	clk.Advance(time.Minute)
	checker.Sweep(context.Background())
	require.Len(t, sink.notified, 1)
	assert.Equal(t, settings.UserID, sink.notified[0])

	clk.Advance(time.Minute)
	checker.Sweep(context.Background())
	assert.Len(t, sink.notified, 1)
}

func TestCheckerIgnoresDisabledDays(t *testing.T) {
	t.Parallel()

	// Wednesday, but the user only wants Monday reminders.
	start := time.Date(2025, 6, 11, 8, 59, 0, 0, time.UTC)
	clk := clock.NewFixed(start)

	settings := enabledSettings(t, domain.TimeOfDay{Hour: 9, Minute: 0}, time.Monday)
	source := &stubSettingsSource{settings: []*domain.SrsSettings{settings}}
	sink := &recordingSink{}

	checker := NewChecker(source, sink, clk, time.Minute, slog.Default())

	clk.Advance(10 * time.Minute)
	checker.Sweep(context.Background())
	assert.Empty(t, sink.notified)
}
