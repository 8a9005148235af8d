package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NotescapeAi/notescape-backend/internal/models"
)

type FlashcardRepo struct {
	pool *pgxpool.Pool
}

func NewFlashcardRepo(pool *pgxpool.Pool) *FlashcardRepo {
	return &FlashcardRepo{pool: pool}
}

func (r *FlashcardRepo) Create(ctx context.Context, c *models.Flashcard) error {
	c.ID = uuid.New()
	if c.Tags == nil {
		c.Tags = []string{}
	}
	query := `INSERT INTO flashcards (id, class_id, source_chunk_id, question, answer, hint, difficulty, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		c.ID, c.ClassID, c.SourceChunkID, c.Question, c.Answer, c.Hint, c.Difficulty, c.Tags,
	).Scan(&c.CreatedAt)
}

// CreateBatch inserts generated cards in one transaction so a failed
// generation run never leaves a partial deck behind.
func (r *FlashcardRepo) CreateBatch(ctx context.Context, cards []models.Flashcard) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range cards {
		cards[i].ID = uuid.New()
		if cards[i].Tags == nil {
			cards[i].Tags = []string{}
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO flashcards (id, class_id, source_chunk_id, question, answer, hint, difficulty, tags)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`,
			cards[i].ID, cards[i].ClassID, cards[i].SourceChunkID, cards[i].Question,
			cards[i].Answer, cards[i].Hint, cards[i].Difficulty, cards[i].Tags,
		).Scan(&cards[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *FlashcardRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Flashcard, error) {
	c := &models.Flashcard{}
	query := `SELECT id, class_id, source_chunk_id, question, answer, hint, difficulty, tags, created_at
		FROM flashcards WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.ClassID, &c.SourceChunkID, &c.Question, &c.Answer, &c.Hint, &c.Difficulty, &c.Tags, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByIDForUser returns the card only if its class belongs to the user.
func (r *FlashcardRepo) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.Flashcard, error) {
	c := &models.Flashcard{}
	query := `SELECT f.id, f.class_id, f.source_chunk_id, f.question, f.answer, f.hint, f.difficulty, f.tags, f.created_at
		FROM flashcards f
		JOIN classes cl ON cl.id = f.class_id
		WHERE f.id = $1 AND cl.user_id = $2`

	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&c.ID, &c.ClassID, &c.SourceChunkID, &c.Question, &c.Answer, &c.Hint, &c.Difficulty, &c.Tags, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *FlashcardRepo) ListByClass(ctx context.Context, classID uuid.UUID) ([]models.Flashcard, error) {
	query := `SELECT id, class_id, source_chunk_id, question, answer, hint, difficulty, tags, created_at
		FROM flashcards WHERE class_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		c := models.Flashcard{}
		err := rows.Scan(&c.ID, &c.ClassID, &c.SourceChunkID, &c.Question, &c.Answer, &c.Hint, &c.Difficulty, &c.Tags, &c.CreatedAt)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// Delete removes the card; its review_states and review_logs rows go with
// it via ON DELETE CASCADE.
func (r *FlashcardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM flashcards WHERE id = $1", id)
	return err
}
