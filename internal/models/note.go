package models

import (
	"time"

	"github.com/google/uuid"
)

type NoteFile struct {
	ID         uuid.UUID `json:"id"`
	ClassID    uuid.UUID `json:"class_id"`
	UserID     uuid.UUID `json:"user_id"`
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NoteChunk is one extracted slice of a note file. Flashcards keep a
// back-reference to the chunk they were generated from; file-scoped due
// queries resolve through it.
type NoteChunk struct {
	ID        uuid.UUID `json:"id"`
	FileID    uuid.UUID `json:"file_id"`
	Seq       int       `json:"seq"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
