package notify

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
)

func enabledSettings(t *testing.T, at domain.TimeOfDay, days ...time.Weekday) *domain.SrsSettings {
	t.Helper()
	settings, err := domain.NewDefaultSettings(uuid.New())
	if err != nil {
		t.Fatalf("failed to create settings: %v", err)
	}
	settings.NotificationEnabled = true
	settings.NotificationTime = at
	settings.NotificationDays = days
	return settings
}

func TestNextFireTime(t *testing.T) {
	t.Parallel()

	// 2025-06-11 is a Wednesday.
	wednesday := time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)
	nineAM := domain.TimeOfDay{Hour: 9, Minute: 0}

	testCases := []struct {
		name     string
		settings *domain.SrsSettings
		now      time.Time
		expected time.Time
		ok       bool
	}{
		{
			name:     "disabled settings never fire",
			settings: func() *domain.SrsSettings { s := enabledSettings(t, nineAM, time.Monday); s.NotificationEnabled = false; return s }(),
			now:      wednesday,
			ok:       false,
		},
		{
			name:     "same day before slot",
			settings: enabledSettings(t, nineAM, time.Wednesday),
			now:      wednesday.Add(7 * time.Hour),
			expected: wednesday.Add(9 * time.Hour),
			ok:       true,
		},
		{
			name:     "exactly on the slot fires now",
			settings: enabledSettings(t, nineAM, time.Wednesday),
			now:      wednesday.Add(9 * time.Hour),
			expected: wednesday.Add(9 * time.Hour),
			ok:       true,
		},
		{
			name:     "one second past the slot rolls a full week",
			settings: enabledSettings(t, nineAM, time.Wednesday),
			now:      wednesday.Add(9*time.Hour + time.Second),
			expected: wednesday.AddDate(0, 0, 7).Add(9 * time.Hour),
			ok:       true,
		},
		{
			name:     "friday evening rolls over to monday",
			settings: enabledSettings(t, nineAM, time.Monday),
			now:      wednesday.AddDate(0, 0, 2).Add(20 * time.Hour), // Friday 20:00
			expected: wednesday.AddDate(0, 0, 5).Add(9 * time.Hour),  // Monday 09:00
			ok:       true,
		},
		{
			name:     "picks the nearest of several days",
			settings: enabledSettings(t, nineAM, time.Monday, time.Thursday),
			now:      wednesday.Add(12 * time.Hour),
			expected: wednesday.AddDate(0, 0, 1).Add(9 * time.Hour), // Thursday 09:00
			ok:       true,
		},
		{
			name:     "nil settings",
			settings: nil,
			now:      wednesday,
			ok:       false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fire, ok := NextFireTime(tc.settings, tc.now)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (fire=%v)", tc.ok, ok, fire)
			}
			if ok && !fire.Equal(tc.expected) {
				t.Errorf("expected fire time %v, got %v", tc.expected, fire)
			}
		})
	}
}

func TestNextFireTimeIsIdempotent(t *testing.T) {
	t.Parallel()

	settings := enabledSettings(t, domain.TimeOfDay{Hour: 18, Minute: 30}, time.Saturday)
	now := time.Date(2025, 6, 11, 13, 13, 13, 0, time.UTC)

	first, ok1 := NextFireTime(settings, now)
	second, ok2 := NextFireTime(settings, now)

	if ok1 != ok2 || !first.Equal(second) {
		t.Errorf("expected identical results, got (%v,%v) and (%v,%v)", first, ok1, second, ok2)
	}
}
