package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/platform/logger"
	"github.com/flashbox/flashbox-api/internal/store"
)

// PostgresSettingsStore implements the store.SettingsStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSettingsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSettingsStore creates a new PostgreSQL implementation of the SettingsStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresSettingsStore(db store.DBTX, logger *slog.Logger) *PostgresSettingsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSettingsStore{
		db:     db,
		logger: logger.With(slog.String("component", "settings_store")),
	}
}

// Ensure PostgresSettingsStore implements store.SettingsStore interface
var _ store.SettingsStore = (*PostgresSettingsStore)(nil)

const settingsColumns = `user_id, total_boxes, review_order, forgotten_action, move_down_boxes,
	new_cards_per_day, max_reviews_per_day, notification_enabled, notification_hour,
	notification_minute, notification_days, created_at, updated_at`

// scanSettings reads one settings row. Notification days are stored as a
// JSONB array of weekday numbers.
func scanSettings(scanner interface{ Scan(dest ...any) error }) (*domain.SrsSettings, error) {
	var (
		settings domain.SrsSettings
		days     []byte
	)
	err := scanner.Scan(
		&settings.UserID,
		&settings.TotalBoxes,
		&settings.ReviewOrder,
		&settings.ForgottenCardAction,
		&settings.MoveDownBoxes,
		&settings.NewCardsPerDay,
		&settings.MaxReviewsPerDay,
		&settings.NotificationEnabled,
		&settings.NotificationTime.Hour,
		&settings.NotificationTime.Minute,
		&days,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(days) > 0 {
		if err := json.Unmarshal(days, &settings.NotificationDays); err != nil {
			return nil, fmt.Errorf("failed to decode notification days: %w", err)
		}
	}
	return &settings, nil
}

// GetByUser implements store.SettingsStore.GetByUser.
// Returns store.ErrSettingsNotFound if the user has no saved settings.
func (s *PostgresSettingsStore) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.SrsSettings, error) {
	query := `
		SELECT ` + settingsColumns + `
		FROM srs_settings
		WHERE user_id = $1
	`
	settings, err := scanSettings(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSettingsNotFound
		}
		return nil, MapError(err)
	}
	return settings, nil
}

// Upsert implements store.SettingsStore.Upsert.
// Returns the settings' own validation error if the data is invalid.
func (s *PostgresSettingsStore) Upsert(ctx context.Context, settings *domain.SrsSettings) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := settings.Validate(); err != nil {
		log.Warn("settings validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", settings.UserID.String()))
		return err
	}

	days, err := json.Marshal(settings.NotificationDays)
	if err != nil {
		return fmt.Errorf("failed to encode notification days: %w", err)
	}

	query := `
		INSERT INTO srs_settings (` + settingsColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			total_boxes = EXCLUDED.total_boxes,
			review_order = EXCLUDED.review_order,
			forgotten_action = EXCLUDED.forgotten_action,
			move_down_boxes = EXCLUDED.move_down_boxes,
			new_cards_per_day = EXCLUDED.new_cards_per_day,
			max_reviews_per_day = EXCLUDED.max_reviews_per_day,
			notification_enabled = EXCLUDED.notification_enabled,
			notification_hour = EXCLUDED.notification_hour,
			notification_minute = EXCLUDED.notification_minute,
			notification_days = EXCLUDED.notification_days,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		settings.UserID,
		settings.TotalBoxes,
		settings.ReviewOrder,
		settings.ForgottenCardAction,
		settings.MoveDownBoxes,
		settings.NewCardsPerDay,
		settings.MaxReviewsPerDay,
		settings.NotificationEnabled,
		settings.NotificationTime.Hour,
		settings.NotificationTime.Minute,
		days,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert settings",
			slog.String("error", err.Error()),
			slog.String("user_id", settings.UserID.String()))
		return MapError(err)
	}

	log.Debug("settings upserted", slog.String("user_id", settings.UserID.String()))
	return nil
}

// ListNotificationEnabled implements store.SettingsStore.ListNotificationEnabled.
func (s *PostgresSettingsStore) ListNotificationEnabled(ctx context.Context) ([]*domain.SrsSettings, error) {
	query := `
		SELECT ` + settingsColumns + `
		FROM srs_settings
		WHERE notification_enabled
		ORDER BY user_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.SrsSettings
	for rows.Next() {
		settings, err := scanSettings(rows)
		if err != nil {
			return nil, MapError(err)
		}
		out = append(out, settings)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return out, nil
}

// WithTx implements store.SettingsStore.WithTx.
func (s *PostgresSettingsStore) WithTx(tx *sql.Tx) store.SettingsStore {
	return &PostgresSettingsStore{
		db:     tx,
		logger: s.logger,
	}
}
