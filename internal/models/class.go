package models

import (
	"time"

	"github.com/google/uuid"
)

// Class is a learner's study workspace: uploaded note files and the
// flashcards generated from them hang off a class.
type Class struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateClassRequest struct {
	Title string `json:"title"`
}
