package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
)

var today = time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

func dueCard(t *testing.T, userID uuid.UUID, box int, due time.Time) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, uuid.New(), "front", "back")
	if err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	card.Box = box
	card.DueDate = &due
	return card
}

func newCard(t *testing.T, userID uuid.UUID, createdAt time.Time) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(userID, uuid.New(), "front", "back")
	if err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	card.CreatedAt = createdAt
	return card
}

func TestPlanQuotas(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()
	settings := testSettings(t, userID)
	settings.MaxReviewsPerDay = 20
	settings.NewCardsPerDay = 5

	due := make([]*domain.Card, 0, 35)
	for i := 0; i < 35; i++ {
		due = append(due, dueCard(t, userID, 1+i%7, today.AddDate(0, 0, -i%4)))
	}
	fresh := make([]*domain.Card, 0, 12)
	for i := 0; i < 12; i++ {
		fresh = append(fresh, newCard(t, userID, today.Add(time.Duration(i)*time.Minute)))
	}

	queue, err := planner.Plan(due, fresh, settings, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(queue) != 25 {
		t.Errorf("expected 25 cards (20 due + 5 new), got %d", len(queue))
	}

	dueIDs := make(map[uuid.UUID]bool, len(due))
	for _, c := range due {
		dueIDs[c.ID] = true
	}
	dueCount := 0
	for _, id := range queue {
		if dueIDs[id] {
			dueCount++
		}
	}
	if dueCount != 20 {
		t.Errorf("expected exactly 20 due cards in queue, got %d", dueCount)
	}
	if newCount := len(queue) - dueCount; newCount != 5 {
		t.Errorf("expected exactly 5 new cards in queue, got %d", newCount)
	}
}

func TestPlanQuotasAreIndependent(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()
	settings := testSettings(t, userID)
	settings.MaxReviewsPerDay = 10
	settings.NewCardsPerDay = 3

	// Far more due cards than the review quota: the new-card quota must
	// still be filled completely.
	due := make([]*domain.Card, 0, 50)
	for i := 0; i < 50; i++ {
		due = append(due, dueCard(t, userID, 1, today))
	}
	fresh := []*domain.Card{
		newCard(t, userID, today),
		newCard(t, userID, today.Add(time.Minute)),
		newCard(t, userID, today.Add(2*time.Minute)),
	}

	queue, err := planner.Plan(due, fresh, settings, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 13 {
		t.Errorf("expected 10 due + 3 new = 13 cards, got %d", len(queue))
	}
}

func TestPlanDueDateOrdering(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()
	settings := testSettings(t, userID)
	settings.ReviewOrder = domain.ReviewOrderDueDate

	oldest := dueCard(t, userID, 2, today.AddDate(0, 0, -3))
	middle := dueCard(t, userID, 4, today.AddDate(0, 0, -1))
	newest := dueCard(t, userID, 1, today)

	queue, err := planner.Plan([]*domain.Card{newest, oldest, middle}, nil, settings, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []uuid.UUID{oldest.ID, middle.ID, newest.ID}
	for i, id := range expected {
		if queue[i] != id {
			t.Errorf("position %d: expected %v, got %v", i, id, queue[i])
		}
	}
}

func TestPlanBoxOrdering(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()

	low := dueCard(t, userID, 1, today)
	mid := dueCard(t, userID, 3, today)
	high := dueCard(t, userID, 6, today)
	cards := []*domain.Card{mid, high, low}

	t.Run("ascending", func(t *testing.T) {
		settings := testSettings(t, userID)
		settings.ReviewOrder = domain.ReviewOrderBoxAscending

		queue, err := planner.Plan(cards, nil, settings, today)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := []uuid.UUID{low.ID, mid.ID, high.ID}
		for i, id := range expected {
			if queue[i] != id {
				t.Errorf("position %d: expected %v, got %v", i, id, queue[i])
			}
		}
	})

	t.Run("descending", func(t *testing.T) {
		settings := testSettings(t, userID)
		settings.ReviewOrder = domain.ReviewOrderBoxDescending

		queue, err := planner.Plan(cards, nil, settings, today)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		expected := []uuid.UUID{high.ID, mid.ID, low.ID}
		for i, id := range expected {
			if queue[i] != id {
				t.Errorf("position %d: expected %v, got %v", i, id, queue[i])
			}
		}
	})
}

func TestPlanIsIdempotent(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()

	cards := make([]*domain.Card, 0, 15)
	for i := 0; i < 15; i++ {
		cards = append(cards, dueCard(t, userID, 1+i%7, today.AddDate(0, 0, -i%3)))
	}

	orders := []domain.ReviewOrder{
		domain.ReviewOrderDueDate,
		domain.ReviewOrderBoxAscending,
		domain.ReviewOrderBoxDescending,
		domain.ReviewOrderRandom,
	}

	for _, order := range orders {
		t.Run(string(order), func(t *testing.T) {
			settings := testSettings(t, userID)
			settings.ReviewOrder = order

			first, err := planner.Plan(cards, nil, settings, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			second, err := planner.Plan(cards, nil, settings, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(first) != len(second) {
				t.Fatalf("queue lengths differ: %d vs %d", len(first), len(second))
			}
			for i := range first {
				if first[i] != second[i] {
					t.Errorf("position %d differs between plans: %v vs %v", i, first[i], second[i])
				}
			}
		})
	}
}

func TestPlanRandomSeedVariesByDay(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()
	settings := testSettings(t, userID)
	settings.ReviewOrder = domain.ReviewOrderRandom

	cards := make([]*domain.Card, 0, 30)
	for i := 0; i < 30; i++ {
		cards = append(cards, dueCard(t, userID, 1, today.AddDate(0, 0, -5)))
	}

	todayQueue, err := planner.Plan(cards, nil, settings, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tomorrowQueue, err := planner.Plan(cards, nil, settings, today.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same := true
	for i := range todayQueue {
		if todayQueue[i] != tomorrowQueue[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("expected different shuffle on a different day")
	}
}

func TestPlanFiltersIneligibleCards(t *testing.T) {
	t.Parallel()
	planner := NewPlanner()
	userID := uuid.New()
	settings := testSettings(t, userID)

	due := dueCard(t, userID, 2, today)
	notYetDue := dueCard(t, userID, 2, today.AddDate(0, 0, 5))
	deletedAt := today
	deleted := dueCard(t, userID, 2, today)
	deleted.DeletedAt = &deletedAt

	queue, err := planner.Plan([]*domain.Card{due, notYetDue, deleted}, nil, settings, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(queue) != 1 || queue[0] != due.ID {
		t.Errorf("expected only the due card in queue, got %v", queue)
	}
}
