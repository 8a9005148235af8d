package scheduler

import "errors"

// Sentinel errors for the scheduler package.
// Use errors.Is to check: errors.Is(err, scheduler.ErrInvalidConfidence)
var (
	ErrInvalidConfidence = errors.New("scheduler: invalid confidence rating")
	ErrInvalidParams     = errors.New("scheduler: invalid engine parameters")
)
