package job

import (
	"fmt"
	"strings"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// Action is the mutation a resolved import row requires.
type Action string

// Possible resolution actions
const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionSkip   Action = "skip"
)

// Resolution is the outcome of resolving one import row against a deck.
type Resolution struct {
	Action Action

	// Target is the existing card to update or skip; nil for inserts.
	Target *domain.Card

	// Front and Back are the trimmed row contents to insert or apply.
	Front string
	Back  string
}

// Resolve decides what to do with an incoming row given the cards already in
// the target deck and the job's duplicate policy.
//
// A duplicate is an existing, non-deleted card in the same deck whose trimmed
// front text equals the incoming front text exactly (case-sensitive). Under
// SKIP a duplicate row is skipped; under REPLACE the duplicate's back text is
// updated while its box and due date are preserved; under KEEP_BOTH the row
// is always inserted.
//
// Returns ErrInvalidRow if the row's front or back is blank after trimming or
// exceeds the card side limit.
func Resolve(row Row, existing []*domain.Card, policy DuplicatePolicy) (Resolution, error) {
	front := strings.TrimSpace(row.Front)
	back := strings.TrimSpace(row.Back)

	if front == "" {
		return Resolution{}, fmt.Errorf("%w: front is blank", ErrInvalidRow)
	}
	if back == "" {
		return Resolution{}, fmt.Errorf("%w: back is blank", ErrInvalidRow)
	}
	if len([]rune(front)) > domain.MaxSideLength {
		return Resolution{}, fmt.Errorf("%w: front exceeds %d characters", ErrInvalidRow, domain.MaxSideLength)
	}
	if len([]rune(back)) > domain.MaxSideLength {
		return Resolution{}, fmt.Errorf("%w: back exceeds %d characters", ErrInvalidRow, domain.MaxSideLength)
	}

	resolution := Resolution{Action: ActionInsert, Front: front, Back: back}

	if policy == DuplicateKeepBoth {
		return resolution, nil
	}

	var duplicate *domain.Card
	for _, card := range existing {
		if card == nil || card.DeletedAt != nil {
			continue
		}
		if strings.TrimSpace(card.Front) == front {
			duplicate = card
			break
		}
	}

	if duplicate == nil {
		return resolution, nil
	}

	resolution.Target = duplicate
	switch policy {
	case DuplicateSkip:
		resolution.Action = ActionSkip
	case DuplicateReplace:
		resolution.Action = ActionUpdate
	}

	return resolution, nil
}
