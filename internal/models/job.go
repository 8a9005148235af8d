package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationJob tracks one asynchronous card-generation request through the
// redis queue.
type GenerationJob struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	FileID       uuid.UUID  `json:"file_id"`
	ClassID      uuid.UUID  `json:"class_id"`
	NumCards     int        `json:"num_cards"`
	Status       string     `json:"status"` // "pending" | "processing" | "completed" | "failed"
	RetryCount   int        `json:"retry_count"`
	MaxRetries   int        `json:"max_retries"`
	ErrorMessage *string    `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at"`
}
