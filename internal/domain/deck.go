package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckUserIDEmpty is returned when a deck's user ID is empty or nil.
	ErrDeckUserIDEmpty = errors.New("deck user ID cannot be empty")

	// ErrDeckNameInvalid is returned when a deck's name is blank after
	// trimming or exceeds 100 characters.
	ErrDeckNameInvalid = errors.New("deck name must be 1-100 characters after trimming")
)

// Deck is a named collection of cards owned by a single user. Deck names are
// unique per user (enforced by the store). Decks are soft-deleted: removing a
// deck sets DeletedAt and cascades the same flag to its cards.
type Deck struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Name      string     `json:"name"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewDeck creates a new Deck with the given owner and name.
// Returns an error if validation fails.
func NewDeck(userID uuid.UUID, name string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      strings.TrimSpace(name),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.UserID == uuid.Nil {
		return ErrDeckUserIDEmpty
	}

	name := strings.TrimSpace(d.Name)
	if name == "" || len([]rune(name)) > 100 {
		return ErrDeckNameInvalid
	}

	return nil
}
