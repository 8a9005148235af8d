package scheduler

import (
	"fmt"
	"math"
	"time"
)

// Engine applies confidence-rated reviews to card snapshots.
// It holds only tuning parameters and is safe for concurrent use.
type Engine struct {
	params Params
}

// Result describes a single applied review, in the shape the audit log
// persists it.
type Result struct {
	Confidence    Confidence    `json:"confidence"`
	ReviewedAt    time.Time     `json:"reviewed_at"`
	PriorState    State         `json:"prior_state"`
	NewState      State         `json:"new_state"`
	PriorInterval time.Duration `json:"prior_interval"`
	NewInterval   time.Duration `json:"new_interval"`
}

// NewEngine creates an Engine from the given params.
// Zero-valued fields are filled with defaults; invalid values return an error.
func NewEngine(p Params) (*Engine, error) {
	filled, err := p.withDefaults()
	if err != nil {
		return nil, err
	}
	return &Engine{params: filled}, nil
}

// Params returns the effective tuning, with defaults filled in.
func (e *Engine) Params() Params {
	return e.params
}

// NewCard returns the implicit default snapshot for a never-reviewed card
// under this engine's tuning: NEW state, zero interval, due at creation
// time, ease seeded from InitialEase.
func (e *Engine) NewCard(createdAt time.Time) Card {
	return Card{
		State:      New,
		EaseFactor: e.params.InitialEase,
		Due:        createdAt,
	}
}

// Advance applies one review to the card at the given time and returns the
// updated snapshot plus a log record. The input card is not mutated. An
// out-of-range confidence returns ErrInvalidConfidence and no state change;
// this is the engine's only failure mode.
func (e *Engine) Advance(card Card, conf Confidence, now time.Time) (Card, Result, error) {
	if !conf.IsValid() {
		return Card{}, Result{}, fmt.Errorf("%w: %d", ErrInvalidConfidence, int(conf))
	}

	c := card
	if !c.State.IsValid() {
		c = e.NewCard(now)
	}
	prior := c

	switch {
	case conf.IsLapse():
		// Any lapse lands on the first learning step, regardless of how
		// far the card had progressed.
		c.State = Learning
		c.Lapses++
		c.Interval = e.params.LearningSteps[0]
		c.EaseFactor = math.Max(e.params.MinEase, c.EaseFactor-e.params.LapsePenalty)

	case conf == Pass:
		if prior.State == Review {
			c.Interval = roundSeconds(c.Interval, c.EaseFactor*e.params.HardFactor)
		} else {
			next := e.nextStep(prior)
			if next >= len(e.params.LearningSteps) {
				c.State = Review
				c.Interval = e.params.GraduatingInterval
			} else {
				c.State = Learning
				c.Interval = e.params.LearningSteps[next]
			}
		}

	default: // Good or Easy
		if prior.State == Review {
			factor := c.EaseFactor
			if conf == Easy {
				factor *= e.params.EasyFactor
			}
			c.Interval = roundSeconds(c.Interval, factor)
		} else {
			// Graduate straight out of the ladder.
			c.State = Review
			c.Interval = e.params.GraduatingInterval
		}
		bonus := e.params.GoodBonus
		if conf == Easy {
			bonus = e.params.EasyBonus
		}
		c.EaseFactor = math.Min(e.params.MaxEase, c.EaseFactor+bonus)
	}

	c.Reps++
	c.Due = now.Add(c.Interval)

	res := Result{
		Confidence:    conf,
		ReviewedAt:    now,
		PriorState:    prior.State,
		NewState:      c.State,
		PriorInterval: prior.Interval,
		NewInterval:   c.Interval,
	}
	return c, res, nil
}

// Preview returns the snapshot that each possible rating would produce.
func (e *Engine) Preview(card Card, now time.Time) map[Confidence]Card {
	out := make(map[Confidence]Card, int(Easy))
	for conf := Forgot; conf <= Easy; conf++ {
		c, _, _ := e.Advance(card, conf, now)
		out[conf] = c
	}
	return out
}

// nextStep returns the ladder index the card should move to on a passing
// review. The stored snapshot has no step counter; the position is derived
// from the current interval. A NEW card starts the ladder fresh, and an
// interval that no longer matches any step (params were retuned) counts as
// the last step so the card graduates rather than stalling.
func (e *Engine) nextStep(c Card) int {
	if c.State != Learning {
		return 0
	}
	for i, s := range e.params.LearningSteps {
		if c.Interval == s {
			return i + 1
		}
	}
	return len(e.params.LearningSteps)
}

// roundSeconds scales d by factor, rounded to whole seconds.
func roundSeconds(d time.Duration, factor float64) time.Duration {
	secs := math.Round(d.Seconds() * factor)
	return time.Duration(secs) * time.Second
}
