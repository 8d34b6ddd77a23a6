package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// SettingsStore defines the interface for per-user SRS settings persistence.
// There is at most one settings row per user.
type SettingsStore interface {
	// GetByUser retrieves the user's settings.
	// Returns ErrSettingsNotFound if no settings row exists.
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.SrsSettings, error)

	// Upsert creates or replaces the user's settings.
	// Returns validation errors if the settings data is invalid.
	Upsert(ctx context.Context, settings *domain.SrsSettings) error

	// ListNotificationEnabled retrieves the settings of every user with
	// notifications enabled. Used by the reminder sweep.
	ListNotificationEnabled(ctx context.Context) ([]*domain.SrsSettings, error)

	// WithTx returns a new SettingsStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) SettingsStore
}
