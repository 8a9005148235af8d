// Package scheduler implements the spaced-repetition state machine behind
// flashcard reviews. It is pure computation: an Engine maps a scheduling
// snapshot plus a confidence rating to the next snapshot, and never touches
// storage or the wall clock. Callers pass the evaluation time explicitly,
// which keeps every transition deterministic and unit-testable.
package scheduler
