package services

import (
	"context"

	"github.com/google/uuid"
)

// ScopeResolver maps a file to the cards generated from its chunks.
// *repository.NoteRepo satisfies it.
type ScopeResolver interface {
	CardIDsForFile(ctx context.Context, fileID, userID uuid.UUID) ([]uuid.UUID, error)
}

// ScopeFilter restricts due/progress queries to cards sourced from one
// uploaded file. It fails closed: an unknown file, a file owned by someone
// else, or a file whose cards were all detached resolves to the empty set,
// never an error. Storage failures still propagate.
type ScopeFilter struct {
	notes ScopeResolver
}

func NewScopeFilter(notes ScopeResolver) *ScopeFilter {
	return &ScopeFilter{notes: notes}
}

// Resolve returns the candidate card ids for the scope. scoped is false
// when fileID is nil, meaning the query runs unrestricted.
func (f *ScopeFilter) Resolve(ctx context.Context, learnerID uuid.UUID, fileID *uuid.UUID) (ids []uuid.UUID, scoped bool, err error) {
	if fileID == nil {
		return nil, false, nil
	}
	ids, err = f.notes.CardIDsForFile(ctx, *fileID, learnerID)
	if err != nil {
		return nil, true, err
	}
	return ids, true, nil
}
