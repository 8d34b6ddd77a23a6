package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck to the store.
	// Returns ErrDeckNameExists if the user already has a deck with the
	// same name.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist or is soft-deleted.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByUser retrieves all of the user's decks.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Deck, error)

	// SoftDelete marks the deck deleted and cascades the flag to its cards.
	// Returns ErrDeckNotFound if the deck does not exist.
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new DeckStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) DeckStore
}
