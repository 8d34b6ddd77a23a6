package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/flashbox/flashbox-api/internal/domain"
	"github.com/flashbox/flashbox-api/internal/domain/srs"
	"github.com/flashbox/flashbox-api/internal/platform/clock"
	"github.com/flashbox/flashbox-api/internal/platform/logger"
	"github.com/flashbox/flashbox-api/internal/store"
)

// ReviewService provides the card reviewing use cases: submitting a single
// review outcome and planning the day's review session.
type ReviewService interface {
	// SubmitReview applies a review grade to a card and persists the card's
	// new schedule.
	//
	// Returns:
	//   - (*domain.Card, nil): the card in its post-review state
	//   - (nil, ErrCardNotFound): if the card does not exist
	//   - (nil, ErrNotOwned): if the user does not own the card
	//   - (nil, ErrInvalidGrade): if the grade is not recognized
	SubmitReview(ctx context.Context, userID, cardID uuid.UUID, grade domain.ReviewGrade) (*domain.Card, error)

	// PlanSession builds the ordered review queue for the user's current
	// day: due cards first, then new cards, each capped by the user's daily
	// quotas. Users without saved settings get the defaults.
	PlanSession(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Verify interface compliance at compile time
var _ ReviewService = (*reviewService)(nil)

type reviewService struct {
	db       *sql.DB
	cards    store.CardStore
	settings store.SettingsStore
	engine   srs.Engine
	planner  srs.Planner
	clock    clock.Clock
	logger   *slog.Logger
}

// NewReviewService creates a ReviewService. The db handle may be nil, in
// which case scheduling updates are persisted without an explicit
// transaction; in-memory stores used by tests have no transaction support.
func NewReviewService(
	db *sql.DB,
	cards store.CardStore,
	settings store.SettingsStore,
	engine srs.Engine,
	planner srs.Planner,
	clk clock.Clock,
	log *slog.Logger,
) ReviewService {
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if settings == nil {
		panic("settings store cannot be nil")
	}
	if engine == nil {
		engine = srs.NewEngine()
	}
	if planner == nil {
		planner = srs.NewPlanner()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = slog.Default()
	}

	return &reviewService{
		db:       db,
		cards:    cards,
		settings: settings,
		engine:   engine,
		planner:  planner,
		clock:    clk,
		logger:   log.With(slog.String("component", "review_service")),
	}
}

// SubmitReview implements ReviewService.SubmitReview.
func (s *reviewService) SubmitReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	grade domain.ReviewGrade,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCardNotFound
		}
		log.Error("failed to load card for review",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to load card", Err: err}
	}

	if card.UserID != userID {
		log.Warn("user does not own card",
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, ErrNotOwned
	}

	outcome, err := domain.NewReviewOutcome(cardID, userID, grade, s.clock.Now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidReviewGrade) {
			return nil, ErrInvalidGrade
		}
		return nil, &ServiceError{Operation: "submit_review", Message: "invalid outcome", Err: err}
	}

	settings, err := s.userSettings(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to load settings", Err: err}
	}

	updated, err := s.engine.Apply(card, outcome, settings)
	if err != nil {
		log.Error("failed to apply review outcome",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to apply outcome", Err: err}
	}

	if err := s.persistScheduling(ctx, updated); err != nil {
		log.Error("failed to persist review result",
			slog.String("card_id", cardID.String()),
			slog.String("error", err.Error()))
		return nil, &ServiceError{Operation: "submit_review", Message: "failed to persist schedule", Err: err}
	}

	log.Debug("review submitted",
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
		slog.String("grade", string(grade)),
		slog.Int("box", updated.Box))
	return updated, nil
}

// PlanSession implements ReviewService.PlanSession.
func (s *reviewService) PlanSession(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	settings, err := s.userSettings(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "plan_session", Message: "failed to load settings", Err: err}
	}

	now := s.clock.Now()

	dueCards, err := s.cards.ListDue(ctx, userID, now)
	if err != nil {
		return nil, &ServiceError{Operation: "plan_session", Message: "failed to list due cards", Err: err}
	}
	newCards, err := s.cards.ListNew(ctx, userID)
	if err != nil {
		return nil, &ServiceError{Operation: "plan_session", Message: "failed to list new cards", Err: err}
	}

	queue, err := s.planner.Plan(dueCards, newCards, settings, now)
	if err != nil {
		return nil, &ServiceError{Operation: "plan_session", Message: "failed to plan session", Err: err}
	}

	log.Debug("session planned",
		slog.String("user_id", userID.String()),
		slog.Int("queue_len", len(queue)))
	return queue, nil
}

// userSettings loads the user's settings, falling back to defaults for users
// who never saved any.
func (s *reviewService) userSettings(ctx context.Context, userID uuid.UUID) (*domain.SrsSettings, error) {
	settings, err := s.settings.GetByUser(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if store.IsNotFoundError(err) {
		return domain.NewDefaultSettings(userID)
	}
	return nil, err
}

// persistScheduling writes the card's post-review schedule, inside a
// transaction when a db handle is available.
func (s *reviewService) persistScheduling(ctx context.Context, card *domain.Card) error {
	if s.db == nil {
		return s.cards.UpdateScheduling(ctx, card)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.cards.WithTx(tx).UpdateScheduling(ctx, card); err != nil {
			return fmt.Errorf("failed to update card scheduling: %w", err)
		}
		return nil
	})
}
