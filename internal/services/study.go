package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/models"
)

const defaultDueLimit = 50

// DueReader is the read-only slice of the card store the study queries
// run against. *repository.ReviewRepo satisfies it.
type DueReader interface {
	DueCards(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID, now time.Time, limit int) ([]models.DueCard, error)
	Progress(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID, now, dayEnd time.Time) (*models.Progress, error)
}

// StudyService answers the aggregate due questions. It is side-effect free
// and reads the primary store directly on every call: review writes must be
// visible to the next query, so nothing is cached in-process.
type StudyService struct {
	due   DueReader
	scope *ScopeFilter
	now   func() time.Time
}

func NewStudyService(due DueReader, scope *ScopeFilter) *StudyService {
	return &StudyService{
		due:   due,
		scope: scope,
		now:   time.Now,
	}
}

// DueNow returns the learner's cards with due_at at or before now, NEW
// cards first, optionally restricted to one file's cards.
func (s *StudyService) DueNow(ctx context.Context, learnerID uuid.UUID, fileID *uuid.UUID, limit int) ([]models.DueCard, error) {
	if limit <= 0 {
		limit = defaultDueLimit
	}

	ids, scoped, err := s.scope.Resolve(ctx, learnerID, fileID)
	if err != nil {
		return nil, err
	}
	if scoped && len(ids) == 0 {
		return []models.DueCard{}, nil
	}

	cards, err := s.due.DueCards(ctx, learnerID, ids, s.now(), limit)
	if err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []models.DueCard{}
	}
	return cards, nil
}

// Progress returns {total, due_now, due_today, learning} for the learner.
// due_today is evaluated against the end of the current calendar day in the
// requester's IANA time zone; empty tz means UTC. An unknown zone name is a
// caller error.
func (s *StudyService) Progress(ctx context.Context, learnerID uuid.UUID, fileID *uuid.UUID, tz string) (*models.Progress, error) {
	loc := time.UTC
	if tz != "" {
		var err error
		if loc, err = time.LoadLocation(tz); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"tz": "unknown time zone"}}
		}
	}

	ids, scoped, err := s.scope.Resolve(ctx, learnerID, fileID)
	if err != nil {
		return nil, err
	}
	if scoped && len(ids) == 0 {
		return &models.Progress{}, nil
	}

	now := s.now()
	local := now.In(loc)
	dayEnd := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)

	return s.due.Progress(ctx, learnerID, ids, now, dayEnd)
}
