package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
	"github.com/NotescapeAi/notescape-backend/internal/scheduler"
)

// maxReviewAttempts bounds the optimistic-concurrency retry loop. One
// learner on one device conflicts rarely; two attempts cover the
// double-submit case and the third is slack.
const maxReviewAttempts = 3

// CardGetter loads a flashcard scoped to its owning learner.
type CardGetter interface {
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Flashcard, error)
}

// ReviewStore is the slice of the card store the review service writes
// through. *repository.ReviewRepo satisfies it.
type ReviewStore interface {
	GetState(ctx context.Context, cardID, learnerID uuid.UUID) (*models.ReviewState, error)
	LatestLog(ctx context.Context, cardID, learnerID uuid.UUID) (*models.ReviewLog, error)
	ApplyReview(ctx context.Context, state *models.ReviewState, log *models.ReviewLog) error
}

// ReviewService runs one review transaction: load state, advance through
// the engine, persist state plus audit log atomically. It is the only
// writer of review state.
type ReviewService struct {
	cards  CardGetter
	store  ReviewStore
	engine *scheduler.Engine
	now    func() time.Time
}

func NewReviewService(cards CardGetter, store ReviewStore, engine *scheduler.Engine) *ReviewService {
	return &ReviewService{
		cards:  cards,
		store:  store,
		engine: engine,
		now:    time.Now,
	}
}

// SubmitReview applies one confidence-rated review for (card, learner).
// Resubmitting with the idempotency key of the latest applied review
// returns that review's result without touching the engine or the store
// again. Version conflicts are retried internally from the load step up to
// maxReviewAttempts before surfacing as ConcurrentModificationError.
func (s *ReviewService) SubmitReview(ctx context.Context, cardID, learnerID uuid.UUID, confidence int, idemKey string) (*models.ReviewState, error) {
	conf := scheduler.Confidence(confidence)
	if !conf.IsValid() {
		return nil, &InvalidRatingError{Confidence: confidence}
	}
	if idemKey == "" {
		return nil, &ValidationError{Fields: map[string]string{"idempotency_key": "required"}}
	}

	card, err := s.cards.GetByIDForUser(ctx, cardID, learnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Card not found"}
	}
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxReviewAttempts; attempt++ {
		state, err := s.store.GetState(ctx, cardID, learnerID)
		if err != nil {
			return nil, err
		}
		if state == nil {
			// Never reviewed: synthesize the shared NEW default. Version 0
			// makes the write an insert-if-absent.
			state = &models.ReviewState{CardID: cardID, LearnerID: learnerID}
			state.ApplySnapshot(s.engine.NewCard(card.CreatedAt))
		}

		latest, err := s.store.LatestLog(ctx, cardID, learnerID)
		if err != nil {
			return nil, err
		}
		if latest != nil && latest.IdempotencyKey == idemKey {
			// Client retry of an already-applied review.
			return state, nil
		}

		next, res, err := s.engine.Advance(state.Snapshot(), conf, s.now())
		if errors.Is(err, scheduler.ErrInvalidConfidence) {
			return nil, &InvalidRatingError{Confidence: confidence}
		}
		if err != nil {
			return nil, err
		}

		updated := *state
		updated.ApplySnapshot(next)
		log := &models.ReviewLog{
			CardID:               cardID,
			LearnerID:            learnerID,
			Confidence:           conf,
			IdempotencyKey:       idemKey,
			ReviewedAt:           res.ReviewedAt,
			PriorIntervalSeconds: int64(res.PriorInterval / time.Second),
			NewIntervalSeconds:   int64(res.NewInterval / time.Second),
			PriorState:           res.PriorState,
			NewState:             res.NewState,
		}

		err = s.store.ApplyReview(ctx, &updated, log)
		if errors.Is(err, repository.ErrVersionConflict) {
			// Lost the race; reload and reapply against the winner's state.
			continue
		}
		if err != nil {
			return nil, err
		}
		return &updated, nil
	}

	return nil, &ConcurrentModificationError{CardID: cardID}
}

// Preview returns, for each possible confidence rating, the scheduling
// snapshot a review submitted now would produce. Read-only.
func (s *ReviewService) Preview(ctx context.Context, cardID, learnerID uuid.UUID) (map[scheduler.Confidence]scheduler.Card, error) {
	card, err := s.cards.GetByIDForUser(ctx, cardID, learnerID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &NotFoundError{Message: "Card not found"}
	}
	if err != nil {
		return nil, err
	}

	state, err := s.store.GetState(ctx, cardID, learnerID)
	if err != nil {
		return nil, err
	}
	snapshot := s.engine.NewCard(card.CreatedAt)
	if state != nil {
		snapshot = state.Snapshot()
	}
	return s.engine.Preview(snapshot, s.now()), nil
}
