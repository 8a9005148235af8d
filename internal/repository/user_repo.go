package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NotescapeAi/notescape-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// UpsertGoogle creates or refreshes the user row for a verified Google
// identity and returns the current row.
func (r *UserRepo) UpsertGoogle(ctx context.Context, email, fullName string, avatarURL *string, googleID string) (*models.User, error) {
	user := &models.User{}
	query := `
		INSERT INTO users (id, email, full_name, avatar_url, auth_provider, google_id, last_login_at)
		VALUES ($1, $2, $3, $4, 'google', $5, NOW())
		ON CONFLICT (email) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			avatar_url = EXCLUDED.avatar_url,
			google_id = EXCLUDED.google_id,
			last_login_at = NOW()
		RETURNING id, email, full_name, avatar_url, auth_provider, google_id, created_at, last_login_at`

	err := r.pool.QueryRow(ctx, query, uuid.New(), email, fullName, avatarURL, googleID).Scan(
		&user.ID, &user.Email, &user.FullName, &user.AvatarURL,
		&user.AuthProvider, &user.GoogleID, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, full_name, avatar_url, auth_provider, google_id, created_at, last_login_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.FullName, &user.AvatarURL,
		&user.AuthProvider, &user.GoogleID, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
