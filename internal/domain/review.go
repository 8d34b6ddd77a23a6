package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewGrade represents the result of a single card review.
type ReviewGrade string

// Possible review grade values
const (
	GradeCorrect   ReviewGrade = "correct"
	GradeForgotten ReviewGrade = "forgotten"
)

// Review outcome validation errors
var (
	ErrOutcomeCardIDEmpty = errors.New("review outcome card ID cannot be empty")
	ErrOutcomeUserIDEmpty = errors.New("review outcome user ID cannot be empty")
	ErrOutcomeTimeZero    = errors.New("review outcome timestamp cannot be zero")
)

// ReviewOutcome is the transient value produced when a user reviews a card.
// It is not persisted on its own; it is the input that moves the card
// between boxes.
type ReviewOutcome struct {
	CardID     uuid.UUID   `json:"card_id"`
	UserID     uuid.UUID   `json:"user_id"`
	Grade      ReviewGrade `json:"grade"`
	ReviewedAt time.Time   `json:"reviewed_at"`
}

// NewReviewOutcome creates a ReviewOutcome for the given card, user, and grade,
// stamped with the given review time. Returns an error if validation fails.
func NewReviewOutcome(cardID, userID uuid.UUID, grade ReviewGrade, reviewedAt time.Time) (*ReviewOutcome, error) {
	outcome := &ReviewOutcome{
		CardID:     cardID,
		UserID:     userID,
		Grade:      grade,
		ReviewedAt: reviewedAt,
	}

	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	return outcome, nil
}

// Validate checks if the ReviewOutcome has valid data.
func (o *ReviewOutcome) Validate() error {
	if o.CardID == uuid.Nil {
		return ErrOutcomeCardIDEmpty
	}

	if o.UserID == uuid.Nil {
		return ErrOutcomeUserIDEmpty
	}

	switch o.Grade {
	case GradeCorrect, GradeForgotten:
	default:
		return ErrInvalidReviewGrade
	}

	if o.ReviewedAt.IsZero() {
		return ErrOutcomeTimeZero
	}

	return nil
}
