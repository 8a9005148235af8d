package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/repository"
	"github.com/NotescapeAi/notescape-backend/internal/scheduler"
)

type fakeCards struct {
	cards map[uuid.UUID]*models.Flashcard
}

func (f *fakeCards) GetByIDForUser(_ context.Context, id, _ uuid.UUID) (*models.Flashcard, error) {
	c, ok := f.cards[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

type fakeStore struct {
	state         *models.ReviewState
	logs          []models.ReviewLog
	conflictsLeft int
	applyCalls    int
}

func (f *fakeStore) GetState(_ context.Context, _, _ uuid.UUID) (*models.ReviewState, error) {
	if f.state == nil {
		return nil, nil
	}
	cp := *f.state
	return &cp, nil
}

func (f *fakeStore) LatestLog(_ context.Context, _, _ uuid.UUID) (*models.ReviewLog, error) {
	if len(f.logs) == 0 {
		return nil, nil
	}
	cp := f.logs[len(f.logs)-1]
	return &cp, nil
}

func (f *fakeStore) ApplyReview(_ context.Context, state *models.ReviewState, log *models.ReviewLog) error {
	f.applyCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return repository.ErrVersionConflict
	}
	state.Version++
	cp := *state
	f.state = &cp
	f.logs = append(f.logs, *log)
	return nil
}

func newReviewFixture(t *testing.T) (*ReviewService, *fakeStore, uuid.UUID, uuid.UUID) {
	t.Helper()

	engine, err := scheduler.NewEngine(scheduler.DefaultParams())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	cardID := uuid.New()
	learnerID := uuid.New()
	cards := &fakeCards{cards: map[uuid.UUID]*models.Flashcard{
		cardID: {ID: cardID, Question: "q", Answer: "a", CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)},
	}}
	store := &fakeStore{}

	svc := NewReviewService(cards, store, engine)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) }
	return svc, store, cardID, learnerID
}

func TestSubmitReview_FirstReview(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)

	state, err := svc.SubmitReview(context.Background(), cardID, learnerID, 4, "key-1")
	if err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}

	if state.State != scheduler.Review {
		t.Errorf("Expected REVIEW after first Good, got %s", state.State)
	}
	if state.IntervalSeconds != int64((24 * time.Hour).Seconds()) {
		t.Errorf("Expected 24h interval, got %ds", state.IntervalSeconds)
	}
	if state.Version != 1 {
		t.Errorf("Expected version 1 on first write, got %d", state.Version)
	}
	if len(store.logs) != 1 {
		t.Fatalf("Expected 1 log row, got %d", len(store.logs))
	}
	if store.logs[0].IdempotencyKey != "key-1" {
		t.Errorf("Log has wrong idempotency key: %q", store.logs[0].IdempotencyKey)
	}
	if store.logs[0].PriorState != scheduler.New || store.logs[0].NewState != scheduler.Review {
		t.Errorf("Log states wrong: %s -> %s", store.logs[0].PriorState, store.logs[0].NewState)
	}
}

func TestSubmitReview_Idempotent(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)

	first, err := svc.SubmitReview(context.Background(), cardID, learnerID, 3, "dup-key")
	if err != nil {
		t.Fatalf("first SubmitReview: %v", err)
	}

	second, err := svc.SubmitReview(context.Background(), cardID, learnerID, 3, "dup-key")
	if err != nil {
		t.Fatalf("second SubmitReview: %v", err)
	}

	if len(store.logs) != 1 {
		t.Fatalf("Duplicate submit must not append a log; got %d rows", len(store.logs))
	}
	if second.Version != first.Version {
		t.Errorf("Duplicate submit must not advance version: %d vs %d", second.Version, first.Version)
	}
	if second.IntervalSeconds != first.IntervalSeconds {
		t.Errorf("Duplicate submit changed the interval: %d vs %d", second.IntervalSeconds, first.IntervalSeconds)
	}
}

func TestSubmitReview_NewKeyAppliesAgain(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)

	if _, err := svc.SubmitReview(context.Background(), cardID, learnerID, 4, "key-1"); err != nil {
		t.Fatalf("first SubmitReview: %v", err)
	}
	state, err := svc.SubmitReview(context.Background(), cardID, learnerID, 4, "key-2")
	if err != nil {
		t.Fatalf("second SubmitReview: %v", err)
	}

	if len(store.logs) != 2 {
		t.Fatalf("Expected 2 log rows, got %d", len(store.logs))
	}
	if state.Reps != 2 {
		t.Errorf("Expected 2 reps, got %d", state.Reps)
	}
	if state.Version != 2 {
		t.Errorf("Expected version 2, got %d", state.Version)
	}
}

func TestSubmitReview_InvalidRating(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)

	for _, conf := range []int{0, 6, -1} {
		_, err := svc.SubmitReview(context.Background(), cardID, learnerID, conf, "key")
		var ratingErr *InvalidRatingError
		if !errors.As(err, &ratingErr) {
			t.Errorf("confidence %d: expected InvalidRatingError, got %v", conf, err)
		}
	}
	if store.applyCalls != 0 {
		t.Errorf("Invalid ratings must not reach the store; got %d writes", store.applyCalls)
	}
}

func TestSubmitReview_MissingIdempotencyKey(t *testing.T) {
	svc, _, cardID, learnerID := newReviewFixture(t)

	_, err := svc.SubmitReview(context.Background(), cardID, learnerID, 3, "")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestSubmitReview_CardNotFound(t *testing.T) {
	svc, _, _, learnerID := newReviewFixture(t)

	_, err := svc.SubmitReview(context.Background(), uuid.New(), learnerID, 3, "key")
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}

func TestSubmitReview_RetriesVersionConflict(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)
	store.conflictsLeft = 2

	state, err := svc.SubmitReview(context.Background(), cardID, learnerID, 5, "key")
	if err != nil {
		t.Fatalf("SubmitReview should succeed after retries: %v", err)
	}
	if store.applyCalls != 3 {
		t.Errorf("Expected 3 apply attempts, got %d", store.applyCalls)
	}
	if state.Reps != 1 {
		t.Errorf("Expected exactly one applied review, got %d reps", state.Reps)
	}
}

func TestSubmitReview_ConflictExhausted(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)
	store.conflictsLeft = maxReviewAttempts

	_, err := svc.SubmitReview(context.Background(), cardID, learnerID, 5, "key")
	var conflictErr *ConcurrentModificationError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("Expected ConcurrentModificationError, got %v", err)
	}
	if conflictErr.CardID != cardID {
		t.Errorf("Conflict error names wrong card: %s", conflictErr.CardID)
	}
	if len(store.logs) != 0 {
		t.Errorf("Exhausted conflict must leave no log rows, got %d", len(store.logs))
	}
}

func TestSubmitReview_LapseFromReview(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)

	// Seed a REVIEW state at 4d / ease 2.5.
	store.state = &models.ReviewState{
		CardID:          cardID,
		LearnerID:       learnerID,
		State:           scheduler.Review,
		EaseFactor:      2.5,
		IntervalSeconds: int64((4 * 24 * time.Hour).Seconds()),
		DueAt:           svc.now(),
		Reps:            3,
		Version:         3,
	}

	state, err := svc.SubmitReview(context.Background(), cardID, learnerID, 1, "lapse-key")
	if err != nil {
		t.Fatalf("SubmitReview: %v", err)
	}

	if state.State != scheduler.Learning {
		t.Errorf("Expected LEARNING after lapse, got %s", state.State)
	}
	if state.IntervalSeconds != int64((10 * time.Minute).Seconds()) {
		t.Errorf("Expected 10m interval after lapse, got %ds", state.IntervalSeconds)
	}
	if state.EaseFactor != 2.3 {
		t.Errorf("Expected ease 2.3 after lapse, got %v", state.EaseFactor)
	}
	if state.Lapses != 1 {
		t.Errorf("Expected 1 lapse, got %d", state.Lapses)
	}
	if state.Version != 4 {
		t.Errorf("Expected version 4, got %d", state.Version)
	}
}

func TestPreview_ReadOnly(t *testing.T) {
	svc, store, cardID, learnerID := newReviewFixture(t)

	outcomes, err := svc.Preview(context.Background(), cardID, learnerID)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if len(outcomes) != 5 {
		t.Fatalf("Expected 5 outcomes, got %d", len(outcomes))
	}
	if store.applyCalls != 0 {
		t.Errorf("Preview must not write, got %d writes", store.applyCalls)
	}
	if outcomes[scheduler.Forgot].State != scheduler.Learning {
		t.Errorf("Forgot preview should land in LEARNING, got %s", outcomes[scheduler.Forgot].State)
	}
	if outcomes[scheduler.Easy].State != scheduler.Review {
		t.Errorf("Easy preview should graduate to REVIEW, got %s", outcomes[scheduler.Easy].State)
	}
}

func TestPreview_CardNotFound(t *testing.T) {
	svc, _, _, learnerID := newReviewFixture(t)

	_, err := svc.Preview(context.Background(), uuid.New(), learnerID)
	var nfErr *NotFoundError
	if !errors.As(err, &nfErr) {
		t.Fatalf("Expected NotFoundError, got %v", err)
	}
}
