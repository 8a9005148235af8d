package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/NotescapeAi/notescape-backend/internal/models"
)

type NoteRepo struct {
	pool *pgxpool.Pool
}

func NewNoteRepo(pool *pgxpool.Pool) *NoteRepo {
	return &NoteRepo{pool: pool}
}

// CreateFileWithChunks inserts the file row and its extracted chunks in one
// transaction.
func (r *NoteRepo) CreateFileWithChunks(ctx context.Context, f *models.NoteFile, chunks []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	f.ID = uuid.New()
	f.ChunkCount = len(chunks)
	err = tx.QueryRow(ctx, `
		INSERT INTO note_files (id, class_id, user_id, filename, size_bytes, chunk_count)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		f.ID, f.ClassID, f.UserID, f.Filename, f.SizeBytes, f.ChunkCount,
	).Scan(&f.CreatedAt)
	if err != nil {
		return err
	}

	for i, content := range chunks {
		_, err := tx.Exec(ctx, `
			INSERT INTO note_chunks (id, file_id, seq, content)
			VALUES ($1, $2, $3, $4)`,
			uuid.New(), f.ID, i, content,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *NoteRepo) GetFile(ctx context.Context, id uuid.UUID) (*models.NoteFile, error) {
	f := &models.NoteFile{}
	query := `SELECT id, class_id, user_id, filename, size_bytes, chunk_count, created_at
		FROM note_files WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.ClassID, &f.UserID, &f.Filename, &f.SizeBytes, &f.ChunkCount, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *NoteRepo) ListFilesByClass(ctx context.Context, classID uuid.UUID) ([]*models.NoteFile, error) {
	query := `SELECT id, class_id, user_id, filename, size_bytes, chunk_count, created_at
		FROM note_files WHERE class_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []*models.NoteFile
	for rows.Next() {
		f := &models.NoteFile{}
		err := rows.Scan(&f.ID, &f.ClassID, &f.UserID, &f.Filename, &f.SizeBytes, &f.ChunkCount, &f.CreatedAt)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes the file and its chunks (cascade). Cards generated
// from those chunks stay, with source_chunk_id set NULL by the foreign key,
// so they drop out of file-scoped queries but keep their review history.
func (r *NoteRepo) DeleteFile(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM note_files WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

// CardIDsForFile resolves the file scope: every card generated from one of
// the file's chunks, provided the file belongs to the user. An unknown or
// foreign file yields an empty set, not an error.
func (r *NoteRepo) CardIDsForFile(ctx context.Context, fileID, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT f.id
		FROM flashcards f
		JOIN note_chunks nc ON nc.id = f.source_chunk_id
		JOIN note_files nf ON nf.id = nc.file_id
		WHERE nf.id = $1 AND nf.user_id = $2
		ORDER BY f.id`

	rows, err := r.pool.Query(ctx, query, fileID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// FileText concatenates the file's chunks in order, for the generator.
func (r *NoteRepo) FileText(ctx context.Context, fileID uuid.UUID) (string, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT content FROM note_chunks WHERE file_id = $1 ORDER BY seq", fileID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var b strings.Builder
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}
	return b.String(), rows.Err()
}

// ChunkIDsForFile returns the chunk ids the file produced, in order. The
// generator assigns cards round-robin to source chunks through it.
func (r *NoteRepo) ChunkIDsForFile(ctx context.Context, fileID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id FROM note_chunks WHERE file_id = $1 ORDER BY seq", fileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
