package scheduler

import (
	"fmt"
	"time"
)

const defaultInitialEase = 2.5

// Params tunes the scheduling algorithm. The zero value of any field is
// replaced with its default in NewEngine; see field comments.
type Params struct {
	// LearningSteps is the ladder of short intervals a card climbs before
	// graduating to REVIEW. nil → [10m, 24h].
	LearningSteps []time.Duration `json:"learning_steps"`
	// GraduatingInterval is the first REVIEW interval. zero → 24h.
	GraduatingInterval time.Duration `json:"graduating_interval"`
	// InitialEase is the ease factor of a never-reviewed card. zero → 2.5.
	InitialEase float64 `json:"initial_ease"`
	// MinEase / MaxEase bound the ease factor. zero → 1.3 / 3.0.
	MinEase float64 `json:"min_ease"`
	MaxEase float64 `json:"max_ease"`
	// LapsePenalty is subtracted from ease on confidence 1-2. zero → 0.2.
	LapsePenalty float64 `json:"lapse_penalty"`
	// GoodBonus / EasyBonus are added to ease on confidence 4 / 5.
	// zero → 0.05 / 0.15.
	GoodBonus float64 `json:"good_bonus"`
	EasyBonus float64 `json:"easy_bonus"`
	// HardFactor scales the ease multiplier on confidence 3 in REVIEW.
	// zero → 0.85.
	HardFactor float64 `json:"hard_factor"`
	// EasyFactor scales the ease multiplier on confidence 5 in REVIEW.
	// zero → 1.3.
	EasyFactor float64 `json:"easy_factor"`
}

// DefaultParams returns the tuning used in production. The ease ceiling is
// 3.0 rather than the textbook 2.5 so a fresh card rated Easy lands at 2.65.
func DefaultParams() Params {
	return Params{
		LearningSteps:      []time.Duration{10 * time.Minute, 24 * time.Hour},
		GraduatingInterval: 24 * time.Hour,
		InitialEase:        defaultInitialEase,
		MinEase:            1.3,
		MaxEase:            3.0,
		LapsePenalty:       0.2,
		GoodBonus:          0.05,
		EasyBonus:          0.15,
		HardFactor:         0.85,
		EasyFactor:         1.3,
	}
}

// withDefaults fills zero-valued fields and validates the result.
func (p Params) withDefaults() (Params, error) {
	d := DefaultParams()
	if p.LearningSteps == nil {
		p.LearningSteps = d.LearningSteps
	}
	if p.GraduatingInterval == 0 {
		p.GraduatingInterval = d.GraduatingInterval
	}
	if p.InitialEase == 0 {
		p.InitialEase = d.InitialEase
	}
	if p.MinEase == 0 {
		p.MinEase = d.MinEase
	}
	if p.MaxEase == 0 {
		p.MaxEase = d.MaxEase
	}
	if p.LapsePenalty == 0 {
		p.LapsePenalty = d.LapsePenalty
	}
	if p.GoodBonus == 0 {
		p.GoodBonus = d.GoodBonus
	}
	if p.EasyBonus == 0 {
		p.EasyBonus = d.EasyBonus
	}
	if p.HardFactor == 0 {
		p.HardFactor = d.HardFactor
	}
	if p.EasyFactor == 0 {
		p.EasyFactor = d.EasyFactor
	}

	if len(p.LearningSteps) == 0 {
		return Params{}, fmt.Errorf("%w: learning steps must not be empty", ErrInvalidParams)
	}
	for i, s := range p.LearningSteps {
		if s <= 0 {
			return Params{}, fmt.Errorf("%w: learning step %d is %v", ErrInvalidParams, i, s)
		}
	}
	if p.GraduatingInterval <= 0 {
		return Params{}, fmt.Errorf("%w: graduating interval is %v", ErrInvalidParams, p.GraduatingInterval)
	}
	if p.MinEase < 1 || p.MaxEase < p.MinEase {
		return Params{}, fmt.Errorf("%w: ease bounds [%v, %v]", ErrInvalidParams, p.MinEase, p.MaxEase)
	}
	if p.InitialEase < p.MinEase || p.InitialEase > p.MaxEase {
		return Params{}, fmt.Errorf("%w: initial ease %v outside [%v, %v]", ErrInvalidParams, p.InitialEase, p.MinEase, p.MaxEase)
	}
	if p.HardFactor <= 0 || p.EasyFactor <= 0 {
		return Params{}, fmt.Errorf("%w: interval factors must be positive", ErrInvalidParams)
	}
	return p, nil
}
