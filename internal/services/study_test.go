package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/NotescapeAi/notescape-backend/internal/models"
)

type fakeDueReader struct {
	cards []models.DueCard

	dueCalls  int
	gotIDs    []uuid.UUID
	gotNow    time.Time
	gotDayEnd time.Time
	gotLimit  int
	progress  *models.Progress
	failWith  error
}

func (f *fakeDueReader) DueCards(_ context.Context, _ uuid.UUID, cardIDs []uuid.UUID, now time.Time, limit int) ([]models.DueCard, error) {
	f.dueCalls++
	f.gotIDs = cardIDs
	f.gotNow = now
	f.gotLimit = limit
	return f.cards, f.failWith
}

func (f *fakeDueReader) Progress(_ context.Context, _ uuid.UUID, cardIDs []uuid.UUID, now, dayEnd time.Time) (*models.Progress, error) {
	f.dueCalls++
	f.gotIDs = cardIDs
	f.gotNow = now
	f.gotDayEnd = dayEnd
	if f.failWith != nil {
		return nil, f.failWith
	}
	if f.progress == nil {
		return &models.Progress{}, nil
	}
	return f.progress, nil
}

type fakeScopeResolver struct {
	ids []uuid.UUID
	err error
}

func (f *fakeScopeResolver) CardIDsForFile(_ context.Context, _, _ uuid.UUID) ([]uuid.UUID, error) {
	return f.ids, f.err
}

func newStudyFixture(resolver ScopeResolver, reader *fakeDueReader, now time.Time) *StudyService {
	svc := NewStudyService(reader, NewScopeFilter(resolver))
	svc.now = func() time.Time { return now }
	return svc
}

func TestDueNow_Unscoped(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeDueReader{cards: []models.DueCard{{State: 1}}}
	svc := newStudyFixture(&fakeScopeResolver{}, reader, now)

	cards, err := svc.DueNow(context.Background(), uuid.New(), nil, 0)
	if err != nil {
		t.Fatalf("DueNow: %v", err)
	}

	if len(cards) != 1 {
		t.Errorf("Expected 1 card, got %d", len(cards))
	}
	if reader.gotIDs != nil {
		t.Errorf("Unscoped query must pass nil card ids, got %v", reader.gotIDs)
	}
	if reader.gotLimit != defaultDueLimit {
		t.Errorf("Expected default limit %d, got %d", defaultDueLimit, reader.gotLimit)
	}
	if !reader.gotNow.Equal(now) {
		t.Errorf("Expected injected now %v, got %v", now, reader.gotNow)
	}
}

func TestDueNow_ScopedEmptyShortCircuits(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeDueReader{}
	// Unknown or foreign file resolves to the empty set.
	svc := newStudyFixture(&fakeScopeResolver{ids: []uuid.UUID{}}, reader, now)

	fileID := uuid.New()
	cards, err := svc.DueNow(context.Background(), uuid.New(), &fileID, 10)
	if err != nil {
		t.Fatalf("DueNow: %v", err)
	}

	if len(cards) != 0 {
		t.Errorf("Expected empty result for empty scope, got %d cards", len(cards))
	}
	if cards == nil {
		t.Error("Expected empty slice, not nil")
	}
	if reader.dueCalls != 0 {
		t.Errorf("Empty scope must not hit the store, got %d calls", reader.dueCalls)
	}
}

func TestDueNow_ScopedPassesIDs(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New()}
	reader := &fakeDueReader{}
	svc := newStudyFixture(&fakeScopeResolver{ids: ids}, reader, now)

	fileID := uuid.New()
	if _, err := svc.DueNow(context.Background(), uuid.New(), &fileID, 5); err != nil {
		t.Fatalf("DueNow: %v", err)
	}

	if len(reader.gotIDs) != 2 {
		t.Errorf("Expected 2 scope ids passed through, got %d", len(reader.gotIDs))
	}
	if reader.gotLimit != 5 {
		t.Errorf("Expected limit 5, got %d", reader.gotLimit)
	}
}

func TestDueNow_NilResultBecomesEmptySlice(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	svc := newStudyFixture(&fakeScopeResolver{}, &fakeDueReader{cards: nil}, now)

	cards, err := svc.DueNow(context.Background(), uuid.New(), nil, 0)
	if err != nil {
		t.Fatalf("DueNow: %v", err)
	}
	if cards == nil {
		t.Error("Expected empty slice, not nil")
	}
}

func TestDueNow_StorageErrorPropagates(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	storeErr := errors.New("connection reset")
	svc := newStudyFixture(&fakeScopeResolver{}, &fakeDueReader{failWith: storeErr}, now)

	_, err := svc.DueNow(context.Background(), uuid.New(), nil, 0)
	if !errors.Is(err, storeErr) {
		t.Fatalf("Storage errors must not be masked as empty results, got %v", err)
	}
}

func TestProgress_DayEndInTimeZone(t *testing.T) {
	// 2026-03-02 23:30 UTC is already 03-03 in Almaty (UTC+5).
	now := time.Date(2026, 3, 2, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tz      string
		wantEnd time.Time
	}{
		{"default UTC", "", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"explicit UTC", "UTC", time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
		{"ahead of UTC", "Asia/Almaty", time.Date(2026, 3, 3, 19, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reader := &fakeDueReader{}
			svc := newStudyFixture(&fakeScopeResolver{}, reader, now)

			if _, err := svc.Progress(context.Background(), uuid.New(), nil, tc.tz); err != nil {
				t.Fatalf("Progress: %v", err)
			}
			if !reader.gotDayEnd.Equal(tc.wantEnd) {
				t.Errorf("dayEnd = %v, want %v", reader.gotDayEnd, tc.wantEnd)
			}
		})
	}
}

func TestProgress_UnknownTimeZone(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	svc := newStudyFixture(&fakeScopeResolver{}, &fakeDueReader{}, now)

	_, err := svc.Progress(context.Background(), uuid.New(), nil, "Mars/Olympus")
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("Expected ValidationError for unknown zone, got %v", err)
	}
}

func TestProgress_ScopedEmptyReturnsZeros(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	reader := &fakeDueReader{progress: &models.Progress{Total: 99}}
	svc := newStudyFixture(&fakeScopeResolver{ids: []uuid.UUID{}}, reader, now)

	fileID := uuid.New()
	p, err := svc.Progress(context.Background(), uuid.New(), &fileID, "")
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Total != 0 || p.DueNow != 0 || p.DueToday != 0 || p.Learning != 0 {
		t.Errorf("Empty scope must report zero counters, got %+v", p)
	}
	if reader.dueCalls != 0 {
		t.Errorf("Empty scope must not hit the store, got %d calls", reader.dueCalls)
	}
}
