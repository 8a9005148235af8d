package scheduler

import "time"

// Card is the per-learner scheduling snapshot for one flashcard.
// Interval is kept at whole-second granularity; all interval arithmetic
// rounds to seconds so persisted due times never accumulate float drift.
type Card struct {
	State      State         `json:"state"`
	EaseFactor float64       `json:"ease_factor"`
	Interval   time.Duration `json:"interval"`
	Due        time.Time     `json:"due"`
	Lapses     int           `json:"lapses"`
	Reps       int           `json:"reps"`
}

// NewCard returns the implicit default snapshot for a card that has never
// been reviewed, under the default tuning: NEW state, zero interval, due at
// creation time. Engines with custom params seed the same snapshot through
// Engine.NewCard; both the review path and the due queries derive the
// no-row case from this one shape, so they can never disagree about what
// "unreviewed" means.
func NewCard(createdAt time.Time) Card {
	return Card{
		State:      New,
		EaseFactor: defaultInitialEase,
		Due:        createdAt,
	}
}
