package services

import (
	"fmt"

	"github.com/google/uuid"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "validation error" }

// InvalidRatingError means the submitted confidence is outside 1-5. The
// caller must fix the input; retrying as-is cannot succeed.
type InvalidRatingError struct {
	Confidence int
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("invalid confidence rating: %d", e.Confidence)
}

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

// ConcurrentModificationError surfaces after the review service has
// exhausted its internal optimistic-concurrency retries. Transient; the
// caller may resubmit with the same idempotency key.
type ConcurrentModificationError struct {
	CardID uuid.UUID
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("review state for card %s was modified concurrently", e.CardID)
}
