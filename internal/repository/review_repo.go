package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NotescapeAi/notescape-backend/internal/models"
	"github.com/NotescapeAi/notescape-backend/internal/scheduler"
)

// ErrVersionConflict is returned by ApplyReview when the stored version no
// longer matches the version the caller read. The review service retries
// from the load step.
var ErrVersionConflict = errors.New("repository: review state version conflict")

type ReviewRepo struct {
	pool *pgxpool.Pool
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool}
}

// GetState returns the scheduling row for (card, learner), or nil when the
// card has never been reviewed by this learner.
func (r *ReviewRepo) GetState(ctx context.Context, cardID, learnerID uuid.UUID) (*models.ReviewState, error) {
	s := &models.ReviewState{}
	var stateName string
	query := `SELECT card_id, learner_id, state, ease_factor, interval_seconds, due_at, lapses, reps, version
		FROM review_states WHERE card_id = $1 AND learner_id = $2`

	err := r.pool.QueryRow(ctx, query, cardID, learnerID).Scan(
		&s.CardID, &s.LearnerID, &stateName, &s.EaseFactor, &s.IntervalSeconds,
		&s.DueAt, &s.Lapses, &s.Reps, &s.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.State.UnmarshalText([]byte(stateName)); err != nil {
		return nil, err
	}
	return s, nil
}

// LatestLog returns the most recent review log row for (card, learner), or
// nil when the pair has no history.
func (r *ReviewRepo) LatestLog(ctx context.Context, cardID, learnerID uuid.UUID) (*models.ReviewLog, error) {
	query := `SELECT id, card_id, learner_id, confidence, idempotency_key, reviewed_at,
			prior_interval_seconds, new_interval_seconds, prior_state, new_state
		FROM review_logs
		WHERE card_id = $1 AND learner_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1`

	log, err := scanLog(r.pool.QueryRow(ctx, query, cardID, learnerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

// ApplyReview persists the advanced state and its audit log row in one
// transaction, guarded by the version the caller read. state.Version holds
// the read version; zero means no row existed yet. On success the stored
// version is bumped and written back into state.
func (r *ReviewRepo) ApplyReview(ctx context.Context, state *models.ReviewState, log *models.ReviewLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	readVersion := state.Version
	if readVersion == 0 {
		// First review of this pair. A concurrent first review inserts the
		// same key, so insert-if-absent is the version guard here.
		tag, err := tx.Exec(ctx, `
			INSERT INTO review_states (card_id, learner_id, state, ease_factor, interval_seconds, due_at, lapses, reps, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (card_id, learner_id) DO NOTHING`,
			state.CardID, state.LearnerID, state.State.String(), state.EaseFactor,
			state.IntervalSeconds, state.DueAt, state.Lapses, state.Reps,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	} else {
		tag, err := tx.Exec(ctx, `
			UPDATE review_states
			SET state = $3, ease_factor = $4, interval_seconds = $5, due_at = $6,
				lapses = $7, reps = $8, version = version + 1
			WHERE card_id = $1 AND learner_id = $2 AND version = $9`,
			state.CardID, state.LearnerID, state.State.String(), state.EaseFactor,
			state.IntervalSeconds, state.DueAt, state.Lapses, state.Reps, readVersion,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrVersionConflict
		}
	}

	log.ID = uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO review_logs (id, card_id, learner_id, confidence, idempotency_key, reviewed_at,
			prior_interval_seconds, new_interval_seconds, prior_state, new_state)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		log.ID, log.CardID, log.LearnerID, int(log.Confidence), log.IdempotencyKey, log.ReviewedAt,
		log.PriorIntervalSeconds, log.NewIntervalSeconds, log.PriorState.String(), log.NewState.String(),
	)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	state.Version = readVersion + 1
	return nil
}

// ListLogs returns the review history for (card, learner), newest first.
func (r *ReviewRepo) ListLogs(ctx context.Context, cardID, learnerID uuid.UUID, limit int) ([]models.ReviewLog, error) {
	query := `SELECT id, card_id, learner_id, confidence, idempotency_key, reviewed_at,
			prior_interval_seconds, new_interval_seconds, prior_state, new_state
		FROM review_logs
		WHERE card_id = $1 AND learner_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, cardID, learnerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ReviewLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

// DueCards returns cards due at or before now for the learner, NEW cards
// first, then ascending due time with card id as tiebreak. A nil cardIDs
// means unscoped; an empty slice never reaches here (the scope filter
// short-circuits it).
func (r *ReviewRepo) DueCards(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID, now time.Time, limit int) ([]models.DueCard, error) {
	query := `
		SELECT f.id, f.class_id, f.source_chunk_id, f.question, f.answer, f.hint, f.difficulty, f.tags, f.created_at,
			COALESCE(rs.state, 'NEW'), COALESCE(rs.due_at, f.created_at)
		FROM flashcards f
		JOIN classes cl ON cl.id = f.class_id AND cl.user_id = $1
		LEFT JOIN review_states rs ON rs.card_id = f.id AND rs.learner_id = $1
		WHERE (rs.card_id IS NULL OR rs.due_at <= $2)
			AND ($3::uuid[] IS NULL OR f.id = ANY($3))
		ORDER BY (rs.card_id IS NOT NULL), COALESCE(rs.due_at, f.created_at), f.id
		LIMIT $4`

	rows, err := r.pool.Query(ctx, query, learnerID, now, cardIDs, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.DueCard
	for rows.Next() {
		var c models.DueCard
		var stateName string
		err := rows.Scan(
			&c.ID, &c.ClassID, &c.SourceChunkID, &c.Question, &c.Answer, &c.Hint,
			&c.Difficulty, &c.Tags, &c.CreatedAt, &stateName, &c.DueAt,
		)
		if err != nil {
			return nil, err
		}
		if err := c.State.UnmarshalText([]byte(stateName)); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Progress aggregates due counts for the learner in one pass. dayEnd is the
// exclusive upper bound of the requester's calendar day (next local
// midnight).
func (r *ReviewRepo) Progress(ctx context.Context, learnerID uuid.UUID, cardIDs []uuid.UUID, now, dayEnd time.Time) (*models.Progress, error) {
	p := &models.Progress{}
	query := `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE rs.card_id IS NULL OR rs.due_at <= $2),
			COUNT(*) FILTER (WHERE rs.card_id IS NULL OR rs.due_at < $3),
			COUNT(*) FILTER (WHERE rs.state = 'LEARNING')
		FROM flashcards f
		JOIN classes cl ON cl.id = f.class_id AND cl.user_id = $1
		LEFT JOIN review_states rs ON rs.card_id = f.id AND rs.learner_id = $1
		WHERE $4::uuid[] IS NULL OR f.id = ANY($4)`

	err := r.pool.QueryRow(ctx, query, learnerID, now, dayEnd, cardIDs).Scan(
		&p.Total, &p.DueNow, &p.DueToday, &p.Learning,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLog(row rowScanner) (*models.ReviewLog, error) {
	log := &models.ReviewLog{}
	var conf int
	var priorState, newState string
	err := row.Scan(
		&log.ID, &log.CardID, &log.LearnerID, &conf, &log.IdempotencyKey, &log.ReviewedAt,
		&log.PriorIntervalSeconds, &log.NewIntervalSeconds, &priorState, &newState,
	)
	if err != nil {
		return nil, err
	}
	log.Confidence = scheduler.Confidence(conf)
	if err := log.PriorState.UnmarshalText([]byte(priorState)); err != nil {
		return nil, err
	}
	if err := log.NewState.UnmarshalText([]byte(newState)); err != nil {
		return nil, err
	}
	return log, nil
}
