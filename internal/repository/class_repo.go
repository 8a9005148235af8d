package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NotescapeAi/notescape-backend/internal/models"
)

type ClassRepo struct {
	pool *pgxpool.Pool
}

func NewClassRepo(pool *pgxpool.Pool) *ClassRepo {
	return &ClassRepo{pool: pool}
}

func (r *ClassRepo) Create(ctx context.Context, c *models.Class) error {
	c.ID = uuid.New()
	query := `INSERT INTO classes (id, user_id, title) VALUES ($1, $2, $3) RETURNING created_at`
	return r.pool.QueryRow(ctx, query, c.ID, c.UserID, c.Title).Scan(&c.CreatedAt)
}

func (r *ClassRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Class, error) {
	c := &models.Class{}
	query := `SELECT id, user_id, title, created_at FROM classes WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *ClassRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Class, error) {
	query := `SELECT id, user_id, title, created_at FROM classes WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []*models.Class
	for rows.Next() {
		c := &models.Class{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *ClassRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM classes WHERE id = $1 AND user_id = $2", id, userID)
	return err
}
