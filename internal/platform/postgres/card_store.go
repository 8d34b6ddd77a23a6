package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/platform/logger"
	"github.com/flashbox/flashbox-api/internal/store"
)

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// cardColumns is the select list shared by every card query.
const cardColumns = `id, user_id, deck_id, front, back, box, due_date, deleted_at, created_at, updated_at`

// scanCard reads one card row from a *sql.Row or *sql.Rows scanner.
func scanCard(scanner interface{ Scan(dest ...any) error }) (*domain.Card, error) {
	var card domain.Card
	err := scanner.Scan(
		&card.ID,
		&card.UserID,
		&card.DeckID,
		&card.Front,
		&card.Back,
		&card.Box,
		&card.DueDate,
		&card.DeletedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// queryCards runs a query expected to yield zero or more card rows.
func (s *PostgresCardStore) queryCards(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return cards, nil
}

// Create implements store.CardStore.Create.
// Returns store.ErrInvalidEntity if the deck does not exist (foreign key
// violation), or the card's own validation error if its data is invalid.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		INSERT INTO cards (id, user_id, deck_id, front, back, box, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.UserID,
		card.DeckID,
		card.Front,
		card.Back,
		card.Box,
		card.DueDate,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	log.Debug("card created",
		slog.String("card_id", card.ID.String()),
		slog.String("deck_id", card.DeckID.String()))
	return nil
}

// GetByID implements store.CardStore.GetByID.
// Returns store.ErrCardNotFound if the card does not exist or is soft-deleted.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE id = $1 AND deleted_at IS NULL
	`
	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, MapError(err)
	}
	return card, nil
}

// ListByDeck implements store.CardStore.ListByDeck.
func (s *PostgresCardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE deck_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`
	return s.queryCards(ctx, query, deckID)
}

// ListByUser implements store.CardStore.ListByUser.
func (s *PostgresCardStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`
	return s.queryCards(ctx, query, userID)
}

// ListDue implements store.CardStore.ListDue.
func (s *PostgresCardStore) ListDue(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1 AND deleted_at IS NULL
		  AND due_date IS NOT NULL AND due_date <= $2
		ORDER BY due_date, id
	`
	return s.queryCards(ctx, query, userID, asOf)
}

// ListNew implements store.CardStore.ListNew.
func (s *PostgresCardStore) ListNew(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE user_id = $1 AND deleted_at IS NULL AND due_date IS NULL
		ORDER BY created_at, id
	`
	return s.queryCards(ctx, query, userID)
}

// UpdateContent implements store.CardStore.UpdateContent.
// Scheduling columns are untouched.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) UpdateContent(ctx context.Context, id uuid.UUID, front, back string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET front = $2, back = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, front, back, time.Now().UTC())
	if err != nil {
		log.Error("failed to update card content",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, "card")
}

// UpdateScheduling implements store.CardStore.UpdateScheduling.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) UpdateScheduling(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during scheduling update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return err
	}

	query := `
		UPDATE cards
		SET box = $2, due_date = $3, updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, card.ID, card.Box, card.DueDate, card.UpdatedAt)
	if err != nil {
		log.Error("failed to update card scheduling",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, "card")
}

// SoftDelete implements store.CardStore.SoftDelete.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) SoftDelete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE cards
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := s.db.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		log.Error("failed to soft-delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, "card")
}

// WithTx implements store.CardStore.WithTx.
// It returns a new CardStore that runs its statements on the given
// transaction.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}
