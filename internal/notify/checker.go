package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/platform/clock"
)

// NotificationSink accepts "reminder due" signals. The delivery channel
// behind it is an external concern.
type NotificationSink interface {
	// Notify signals that a study reminder is due for the given user.
	Notify(ctx context.Context, userID uuid.UUID, fireAt time.Time) error
}

// SettingsSource lists the settings rows the checker has to consider.
type SettingsSource interface {
	// ListNotificationEnabled returns the settings of every user with
	// notifications enabled.
	ListNotificationEnabled(ctx context.Context) ([]*domain.SrsSettings, error)
}

// Checker periodically scans notification-enabled users and emits a signal
// to the sink for every reminder slot that elapsed since the previous scan.
// Each slot fires at most once.
type Checker struct {
	settings SettingsSource
	sink     NotificationSink
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	// last is the upper bound of the previous sweep window.
	last time.Time
}

// NewChecker creates a reminder checker that scans every interval.
// If interval is zero or negative, it defaults to one minute.
func NewChecker(
	settings SettingsSource,
	sink NotificationSink,
	clk clock.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *Checker {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Checker{
		settings: settings,
		sink:     sink,
		clock:    clk,
		interval: interval,
		logger:   logger.With(slog.String("component", "reminder_checker")),
		last:     clk.Now(),
	}
}

// Run sweeps on a ticker until the context is cancelled.
func (c *Checker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("reminder checker started", "interval", c.interval.String())

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("reminder checker stopped")
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep runs a single scan: every reminder slot in (last sweep, now] fires
// exactly once. Exposed for tests and for a forced scan at startup.
func (c *Checker) Sweep(ctx context.Context) {
	now := c.clock.Now()

	enabled, err := c.settings.ListNotificationEnabled(ctx)
	if err != nil {
		// Keep the window open: the slots in (last, now] fire on the
		// next successful sweep instead of being dropped.
		c.logger.Error("failed to list notification-enabled users", "error", err)
		return
	}

	for _, settings := range enabled {
		fire, ok := NextFireTime(settings, c.last)
		if !ok {
			continue
		}
		// Fire only for slots inside the sweep window. A slot exactly at
		// the window's lower bound already fired in the previous sweep.
		if !fire.After(c.last) || fire.After(now) {
			continue
		}

		if err := c.sink.Notify(ctx, settings.UserID, fire); err != nil {
			c.logger.Error("failed to emit reminder",
				"user_id", settings.UserID,
				"fire_at", fire,
				"error", err)
			continue
		}

		c.logger.Debug("reminder emitted",
			"user_id", settings.UserID,
			"fire_at", fire)
	}

	c.last = now
}
