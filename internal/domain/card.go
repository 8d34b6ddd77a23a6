package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxSideLength is the maximum length, in characters, of a card's front or
// back text after trimming.
const MaxSideLength = 5000

// BoxNew is the sentinel box value for a card that has never been reviewed.
// Such a card carries no due date and is scheduled on its first review.
const BoxNew = 0

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardUserIDEmpty is returned when a card's user ID is empty or nil.
	ErrCardUserIDEmpty = errors.New("card user ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontInvalid is returned when a card's front text is blank
	// after trimming or exceeds MaxSideLength.
	ErrCardFrontInvalid = errors.New("card front must be 1-5000 characters after trimming")

	// ErrCardBackInvalid is returned when a card's back text is blank
	// after trimming or exceeds MaxSideLength.
	ErrCardBackInvalid = errors.New("card back must be 1-5000 characters after trimming")

	// ErrCardBoxInvalid is returned when a card's box is outside [1, totalBoxes]
	// while a due date is set, or when a due date is present on a new card.
	ErrCardBoxInvalid = errors.New("card box and due date are inconsistent")
)

// Card represents a single flashcard. A card belongs to exactly one deck and
// carries its Leitner scheduling state: the box it currently occupies and the
// date it next becomes due. A card with Box == BoxNew has never been reviewed
// and has no due date.
type Card struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	DeckID    uuid.UUID  `json:"deck_id"`
	Front     string     `json:"front"`
	Back      string     `json:"back"`
	Box       int        `json:"box"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewCard creates a new, unscheduled Card with the given owner, deck, and
// content. It generates a new UUID for the card ID, trims the content, and
// sets the creation/update timestamps. Returns an error if validation fails.
func NewCard(userID, deckID uuid.UUID, front, back string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		UserID:    userID,
		DeckID:    deckID,
		Front:     strings.TrimSpace(front),
		Back:      strings.TrimSpace(back),
		Box:       BoxNew,
		DueDate:   nil,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.UserID == uuid.Nil {
		return ErrCardUserIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if !validSide(c.Front) {
		return ErrCardFrontInvalid
	}

	if !validSide(c.Back) {
		return ErrCardBackInvalid
	}

	// Scheduling invariant: a scheduled card has box >= 1 and a due date;
	// a new card has neither.
	if c.DueDate != nil && c.Box < 1 {
		return ErrCardBoxInvalid
	}
	if c.DueDate == nil && c.Box != BoxNew {
		return ErrCardBoxInvalid
	}

	return nil
}

// IsNew reports whether the card has never been reviewed.
func (c *Card) IsNew() bool {
	return c.Box == BoxNew && c.DueDate == nil
}

// IsDue reports whether the card is scheduled and due on or before the given day.
func (c *Card) IsDue(today time.Time) bool {
	return c.DueDate != nil && !c.DueDate.After(today)
}

// UpdateContent updates the card's front and back text and bumps the
// UpdatedAt timestamp. Scheduling state (box, due date) is deliberately
// untouched: editing a card never resets its review progress.
// Returns an error if the new content is invalid.
func (c *Card) UpdateContent(front, back string) error {
	front = strings.TrimSpace(front)
	back = strings.TrimSpace(back)

	if !validSide(front) {
		return ErrCardFrontInvalid
	}
	if !validSide(back) {
		return ErrCardBackInvalid
	}

	c.Front = front
	c.Back = back
	c.UpdatedAt = time.Now().UTC()
	return nil
}

func validSide(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && len([]rune(trimmed)) <= MaxSideLength
}
