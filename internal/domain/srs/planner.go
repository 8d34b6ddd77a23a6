package srs

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
)

// Planner builds the ordered review queue for a single day.
type Planner interface {
	// Plan selects up to settings.MaxReviewsPerDay due cards and up to
	// settings.NewCardsPerDay new cards and returns their ids in
	// presentation order: due cards first, then new cards. The two quotas
	// are independent; exhausting one never shrinks the other.
	Plan(
		dueCards []*domain.Card,
		newCards []*domain.Card,
		settings *domain.SrsSettings,
		today time.Time,
	) ([]uuid.UUID, error)
}

// defaultPlanner is the standard Planner implementation.
type defaultPlanner struct{}

// NewPlanner creates the standard session planner.
func NewPlanner() Planner {
	return defaultPlanner{}
}

// Plan implements Planner. Re-planning with an unchanged card set on the
// same day yields the same queue: every ordering is deterministic, and the
// random order is seeded from (user, day) so it is stable within a day.
func (defaultPlanner) Plan(
	dueCards []*domain.Card,
	newCards []*domain.Card,
	settings *domain.SrsSettings,
	today time.Time,
) ([]uuid.UUID, error) {
	if settings == nil {
		return nil, ErrNilSettings
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	day := DayOf(today)

	due := make([]*domain.Card, 0, len(dueCards))
	for _, c := range dueCards {
		if c != nil && !c.IsNew() && c.IsDue(day) && c.DeletedAt == nil {
			due = append(due, c)
		}
	}

	fresh := make([]*domain.Card, 0, len(newCards))
	for _, c := range newCards {
		if c != nil && c.IsNew() && c.DeletedAt == nil {
			fresh = append(fresh, c)
		}
	}

	orderDue(due, settings, day)

	// New cards are presented oldest first so nothing starves at the back
	// of the deck.
	sort.Slice(fresh, func(i, j int) bool {
		if !fresh[i].CreatedAt.Equal(fresh[j].CreatedAt) {
			return fresh[i].CreatedAt.Before(fresh[j].CreatedAt)
		}
		return lessID(fresh[i].ID, fresh[j].ID)
	})

	if len(due) > settings.MaxReviewsPerDay {
		due = due[:settings.MaxReviewsPerDay]
	}
	if len(fresh) > settings.NewCardsPerDay {
		fresh = fresh[:settings.NewCardsPerDay]
	}

	queue := make([]uuid.UUID, 0, len(due)+len(fresh))
	for _, c := range due {
		queue = append(queue, c.ID)
	}
	for _, c := range fresh {
		queue = append(queue, c.ID)
	}

	return queue, nil
}

// orderDue sorts the due set in place according to the user's review order.
func orderDue(due []*domain.Card, settings *domain.SrsSettings, day time.Time) {
	switch settings.ReviewOrder {
	case domain.ReviewOrderDueDate:
		sort.Slice(due, func(i, j int) bool {
			if !due[i].DueDate.Equal(*due[j].DueDate) {
				return due[i].DueDate.Before(*due[j].DueDate)
			}
			return lessID(due[i].ID, due[j].ID)
		})

	case domain.ReviewOrderBoxAscending:
		sort.Slice(due, func(i, j int) bool { return lessByBox(due[i], due[j], true) })

	case domain.ReviewOrderBoxDescending:
		sort.Slice(due, func(i, j int) bool { return lessByBox(due[i], due[j], false) })

	case domain.ReviewOrderRandom:
		// Sort by id first so the permutation is a pure function of the
		// card set, then shuffle with a (user, day) seed. The same user on
		// the same day always sees the same order.
		sort.Slice(due, func(i, j int) bool { return lessID(due[i].ID, due[j].ID) })
		rng := rand.New(rand.NewSource(shuffleSeed(settings.UserID, day)))
		rng.Shuffle(len(due), func(i, j int) {
			due[i], due[j] = due[j], due[i]
		})
	}
}

// lessByBox orders two due cards by box, ties broken by due date then id.
func lessByBox(a, b *domain.Card, ascending bool) bool {
	if a.Box != b.Box {
		if ascending {
			return a.Box < b.Box
		}
		return a.Box > b.Box
	}
	if !a.DueDate.Equal(*b.DueDate) {
		return a.DueDate.Before(*b.DueDate)
	}
	return lessID(a.ID, b.ID)
}

// shuffleSeed derives a deterministic shuffle seed from the user and day.
func shuffleSeed(userID uuid.UUID, day time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(userID.String()))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(day.Format("2006-01-02")))
	return int64(h.Sum64())
}

// lessID gives a stable total order over UUIDs for tie-breaking.
func lessID(a, b uuid.UUID) bool {
	return a.String() < b.String()
}
