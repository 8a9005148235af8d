package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/scheduler"
)

// Flashcard is an immutable content record. Scheduling lives in ReviewState;
// the card itself never changes after creation.
type Flashcard struct {
	ID            uuid.UUID  `json:"id"`
	ClassID       uuid.UUID  `json:"class_id"`
	SourceChunkID *uuid.UUID `json:"source_chunk_id"` // nil for manually created cards
	Question      string     `json:"question"`
	Answer        string     `json:"answer"`
	Hint          *string    `json:"hint"`
	Difficulty    string     `json:"difficulty"` // author label: "easy" | "medium" | "hard"
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
}

type CreateFlashcardRequest struct {
	ClassID    uuid.UUID `json:"class_id"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Hint       *string   `json:"hint"`
	Difficulty string    `json:"difficulty"`
	Tags       []string  `json:"tags"`
}

type GenerateCardsRequest struct {
	FileID   uuid.UUID `json:"file_id"`
	NumCards int       `json:"num_cards"`
}

type SubmitReviewRequest struct {
	Confidence     int    `json:"confidence"` // 1-5
	IdempotencyKey string `json:"idempotency_key"`
}

// DueCard is a flashcard annotated with its current scheduling state for
// the learner making the query.
type DueCard struct {
	Flashcard
	State scheduler.State `json:"state"`
	DueAt time.Time       `json:"due_at"`
}

type Progress struct {
	Total    int `json:"total"`
	DueNow   int `json:"due_now"`
	DueToday int `json:"due_today"`
	Learning int `json:"learning"`
}
