package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewOrder controls how due cards are ordered within a review session.
type ReviewOrder string

// Possible review order values
const (
	ReviewOrderDueDate       ReviewOrder = "due_date"
	ReviewOrderRandom        ReviewOrder = "random"
	ReviewOrderBoxAscending  ReviewOrder = "box_ascending"
	ReviewOrderBoxDescending ReviewOrder = "box_descending"
)

// ForgottenCardAction controls what happens to a card's box when the user
// forgets it.
type ForgottenCardAction string

// Possible forgotten card action values
const (
	ForgottenActionResetToBoxOne ForgottenCardAction = "reset_to_box_one"
	ForgottenActionMoveDownN     ForgottenCardAction = "move_down_n"
)

// DefaultTotalBoxes is the system-wide number of Leitner boxes.
const DefaultTotalBoxes = 7

// Bounds for the per-user settings fields.
const (
	MinMoveDownBoxes = 1
	MaxMoveDownBoxes = 3

	MinNewCardsPerDay = 1
	MaxNewCardsPerDay = 100

	MinReviewsPerDay = 1
	MaxReviewsPerDay = 500
)

// Settings-specific validation errors
var (
	ErrSettingsUserIDEmpty = errors.New("settings user ID cannot be empty")

	ErrInvalidTotalBoxes = errors.New("total boxes must be between 1 and 16")

	ErrInvalidReviewOrder = errors.New("invalid review order")

	ErrInvalidForgottenAction = errors.New("invalid forgotten card action")

	ErrInvalidMoveDownBoxes = fmt.Errorf(
		"move down boxes must be between %d and %d", MinMoveDownBoxes, MaxMoveDownBoxes)

	ErrInvalidNewCardsPerDay = fmt.Errorf(
		"new cards per day must be between %d and %d", MinNewCardsPerDay, MaxNewCardsPerDay)

	ErrInvalidMaxReviewsPerDay = fmt.Errorf(
		"max reviews per day must be between %d and %d", MinReviewsPerDay, MaxReviewsPerDay)

	ErrInvalidNotificationTime = errors.New("notification time must be a valid time of day")

	// ErrNoNotificationDays is returned when notifications are enabled but
	// no weekday is selected.
	ErrNoNotificationDays = errors.New("notification days cannot be empty when notifications are enabled")
)

// TimeOfDay is a wall-clock time without a date, in the user's reference
// time zone. Zone handling is an external concern; the engines receive
// already-localized instants.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Valid reports whether the time of day is within 00:00-23:59.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour < 24 && t.Minute >= 0 && t.Minute < 60
}

// On returns the instant at this time of day on the same calendar day as d,
// preserving d's location.
func (t TimeOfDay) On(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour, t.Minute, 0, 0, d.Location())
}

// SrsSettings holds a user's spaced-repetition preferences. There is exactly
// one SrsSettings per user.
type SrsSettings struct {
	UserID              uuid.UUID           `json:"user_id"`
	TotalBoxes          int                 `json:"total_boxes"`
	ReviewOrder         ReviewOrder         `json:"review_order"`
	ForgottenCardAction ForgottenCardAction `json:"forgotten_card_action"`
	MoveDownBoxes       int                 `json:"move_down_boxes"`
	NewCardsPerDay      int                 `json:"new_cards_per_day"`
	MaxReviewsPerDay    int                 `json:"max_reviews_per_day"`
	NotificationEnabled bool                `json:"notification_enabled"`
	NotificationTime    TimeOfDay           `json:"notification_time"`
	NotificationDays    []time.Weekday      `json:"notification_days"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// NewDefaultSettings creates SrsSettings for the given user with default
// values: 7 boxes, due-date ordering, forgotten cards reset to box one,
// 10 new cards and 100 reviews per day, notifications disabled.
func NewDefaultSettings(userID uuid.UUID) (*SrsSettings, error) {
	now := time.Now().UTC()
	settings := &SrsSettings{
		UserID:              userID,
		TotalBoxes:          DefaultTotalBoxes,
		ReviewOrder:         ReviewOrderDueDate,
		ForgottenCardAction: ForgottenActionResetToBoxOne,
		MoveDownBoxes:       1,
		NewCardsPerDay:      10,
		MaxReviewsPerDay:    100,
		NotificationEnabled: false,
		NotificationTime:    TimeOfDay{Hour: 9, Minute: 0},
		NotificationDays:    nil,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Validate checks if the SrsSettings has valid data.
// Returns an error if any field fails validation.
func (s *SrsSettings) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrSettingsUserIDEmpty
	}

	// The interval table grows as 2^(box-1) days; 16 boxes is the largest
	// count that keeps intervals meaningful.
	if s.TotalBoxes < 1 || s.TotalBoxes > 16 {
		return ErrInvalidTotalBoxes
	}

	switch s.ReviewOrder {
	case ReviewOrderDueDate, ReviewOrderRandom, ReviewOrderBoxAscending, ReviewOrderBoxDescending:
	default:
		return ErrInvalidReviewOrder
	}

	switch s.ForgottenCardAction {
	case ForgottenActionResetToBoxOne, ForgottenActionMoveDownN:
	default:
		return ErrInvalidForgottenAction
	}

	if s.MoveDownBoxes < MinMoveDownBoxes || s.MoveDownBoxes > MaxMoveDownBoxes {
		return ErrInvalidMoveDownBoxes
	}

	if s.NewCardsPerDay < MinNewCardsPerDay || s.NewCardsPerDay > MaxNewCardsPerDay {
		return ErrInvalidNewCardsPerDay
	}

	if s.MaxReviewsPerDay < MinReviewsPerDay || s.MaxReviewsPerDay > MaxReviewsPerDay {
		return ErrInvalidMaxReviewsPerDay
	}

	if !s.NotificationTime.Valid() {
		return ErrInvalidNotificationTime
	}

	if s.NotificationEnabled && len(s.NotificationDays) == 0 {
		return ErrNoNotificationDays
	}

	return nil
}

// NotifiesOn reports whether reminders are enabled for the given weekday.
func (s *SrsSettings) NotifiesOn(day time.Weekday) bool {
	for _, d := range s.NotificationDays {
		if d == day {
			return true
		}
	}
	return false
}
