package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/scheduler"
)

// ReviewState is the mutable per-(card, learner) scheduling row. It is
// written only by the review service, inside a version-guarded transaction.
type ReviewState struct {
	CardID          uuid.UUID       `json:"card_id"`
	LearnerID       uuid.UUID       `json:"learner_id"`
	State           scheduler.State `json:"state"`
	EaseFactor      float64         `json:"ease_factor"`
	IntervalSeconds int64           `json:"interval_seconds"`
	DueAt           time.Time       `json:"due_at"`
	Lapses          int             `json:"lapses"`
	Reps            int             `json:"reps"`
	Version         int64           `json:"version"`
}

// Snapshot converts the stored row to the engine's scheduling snapshot.
func (s *ReviewState) Snapshot() scheduler.Card {
	return scheduler.Card{
		State:      s.State,
		EaseFactor: s.EaseFactor,
		Interval:   time.Duration(s.IntervalSeconds) * time.Second,
		Due:        s.DueAt,
		Lapses:     s.Lapses,
		Reps:       s.Reps,
	}
}

// ApplySnapshot copies an engine snapshot back into the row. Version is
// untouched; the repository bumps it on write.
func (s *ReviewState) ApplySnapshot(c scheduler.Card) {
	s.State = c.State
	s.EaseFactor = c.EaseFactor
	s.IntervalSeconds = int64(c.Interval / time.Second)
	s.DueAt = c.Due
	s.Lapses = c.Lapses
	s.Reps = c.Reps
}

// ReviewLog is one append-only audit row per applied review. The
// idempotency key of the latest row is what shields clients from
// double-submitting the same review.
type ReviewLog struct {
	ID                   uuid.UUID            `json:"id"`
	CardID               uuid.UUID            `json:"card_id"`
	LearnerID            uuid.UUID            `json:"learner_id"`
	Confidence           scheduler.Confidence `json:"confidence"`
	IdempotencyKey       string               `json:"idempotency_key"`
	ReviewedAt           time.Time            `json:"reviewed_at"`
	PriorIntervalSeconds int64                `json:"prior_interval_seconds"`
	NewIntervalSeconds   int64                `json:"new_interval_seconds"`
	PriorState           scheduler.State      `json:"prior_state"`
	NewState             scheduler.State      `json:"new_state"`
}
