package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// Common engine errors
var (
	// ErrNilCard is returned when the card argument is nil.
	ErrNilCard = errors.New("card cannot be nil")

	// ErrNilOutcome is returned when the outcome argument is nil.
	ErrNilOutcome = errors.New("review outcome cannot be nil")

	// ErrNilSettings is returned when the settings argument is nil.
	ErrNilSettings = errors.New("settings cannot be nil")

	// ErrOutcomeMismatch is returned when an outcome references a different
	// card, or a card not owned by the settings' user.
	ErrOutcomeMismatch = errors.New("review outcome does not match card and user")

	// ErrInvalidSettings is returned when the settings fail validation.
	// This guards the engine against corrupted settings rows.
	ErrInvalidSettings = errors.New("invalid settings")
)

// Engine applies review outcomes to cards. Implementations must be pure:
// the input card is never mutated and the same inputs always produce the
// same output.
type Engine interface {
	// Apply computes the card state that results from the given review
	// outcome under the given settings. Returns a new card instance.
	Apply(card *domain.Card, outcome *domain.ReviewOutcome, settings *domain.SrsSettings) (*domain.Card, error)
}

// defaultEngine is the standard Engine implementation.
type defaultEngine struct{}

// NewEngine creates the standard Leitner scheduling engine.
func NewEngine() Engine {
	return defaultEngine{}
}

// Apply implements Engine.
//
// A CORRECT outcome promotes the card one box (capped at the top box) and
// schedules it interval(box) days after the review day. A FORGOTTEN outcome
// demotes it according to the user's forgotten-card action and reschedules
// from the new box. A never-reviewed card enters box 1 on its first CORRECT
// outcome; a FORGOTTEN outcome leaves it unscheduled so it stays in the
// new-card queue.
func (defaultEngine) Apply(
	card *domain.Card,
	outcome *domain.ReviewOutcome,
	settings *domain.SrsSettings,
) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}
	if outcome == nil {
		return nil, ErrNilOutcome
	}
	if settings == nil {
		return nil, ErrNilSettings
	}

	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	if outcome.CardID != card.ID || outcome.UserID != card.UserID || card.UserID != settings.UserID {
		return nil, ErrOutcomeMismatch
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	params, err := NewParams(settings.TotalBoxes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	updated := *card
	updated.UpdatedAt = outcome.ReviewedAt

	if card.IsNew() {
		if outcome.Grade == domain.GradeForgotten {
			// Stays ungraded until first successful study.
			return &updated, nil
		}
		schedule(&updated, 1, outcome.ReviewedAt, params)
		return &updated, nil
	}

	switch outcome.Grade {
	case domain.GradeCorrect:
		box := card.Box + 1
		if box > settings.TotalBoxes {
			box = settings.TotalBoxes
		}
		schedule(&updated, box, outcome.ReviewedAt, params)

	case domain.GradeForgotten:
		box := 1
		if settings.ForgottenCardAction == domain.ForgottenActionMoveDownN {
			box = card.Box - settings.MoveDownBoxes
			if box < 1 {
				box = 1
			}
		}
		schedule(&updated, box, outcome.ReviewedAt, params)
	}

	return &updated, nil
}

// schedule places the card in the given box and sets its due date to
// interval(box) days after the review day (midnight UTC).
func schedule(card *domain.Card, box int, reviewedAt time.Time, params *Params) {
	card.Box = box
	due := DayOf(reviewedAt).AddDate(0, 0, params.IntervalDays(box))
	card.DueDate = &due
}

// DayOf truncates an instant to its calendar day at midnight UTC.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
