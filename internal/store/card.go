package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// CardStore defines the interface for card data persistence. All read
// operations exclude soft-deleted cards.
type CardStore interface {
	// Create saves a new card to the store.
	// Returns validation errors if the card data is invalid.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck retrieves all cards in the given deck.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// ListByUser retrieves all cards owned by the given user.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// ListDue retrieves the user's scheduled cards with a due date on or
	// before asOf.
	ListDue(ctx context.Context, userID uuid.UUID, asOf time.Time) ([]*domain.Card, error)

	// ListNew retrieves the user's cards that have never been reviewed.
	ListNew(ctx context.Context, userID uuid.UUID) ([]*domain.Card, error)

	// UpdateContent modifies an existing card's front and back text.
	// Scheduling fields are untouched.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateContent(ctx context.Context, id uuid.UUID, front, back string) error

	// UpdateScheduling persists the card's box, due date, and updated
	// timestamp after a review.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateScheduling(ctx context.Context, card *domain.Card) error

	// SoftDelete marks the card deleted without removing the row.
	// Returns ErrCardNotFound if the card does not exist.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CardStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CardStore
}
