package studio

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grimbang/nailart/pkg/pg"
)

// PgStore implements Store on Postgres.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	if pool == nil {
		panic("studio: pgx pool is required")
	}
	return &PgStore{pool: pool}
}

func (s *PgStore) Create(ctx context.Context, thumb *Thumbnail) error {
	const query = `
		INSERT INTO thumbnails (id, user_id, prompt, title, status, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		thumb.ID, thumb.UserID, thumb.Prompt, thumb.Title, thumb.Status, thumb.StoragePath,
	).Scan(&thumb.CreatedAt, &thumb.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create thumbnail record: %w", err)
	}
	return nil
}

func (s *PgStore) Get(ctx context.Context, userID, id uuid.UUID) (*Thumbnail, error) {
	const query = `
		SELECT id, user_id, prompt, title, COALESCE(image_url, ''),
			COALESCE(storage_path, ''), status, created_at, updated_at
		FROM thumbnails
		WHERE id = $1 AND user_id = $2`

	thumb, err := scanThumbnail(s.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrThumbnailNotFound
		}
		return nil, err
	}
	return thumb, nil
}

func scanThumbnail(row pgx.Row) (*Thumbnail, error) {
	var thumb Thumbnail
	err := row.Scan(
		&thumb.ID,
		&thumb.UserID,
		&thumb.Prompt,
		&thumb.Title,
		&thumb.ImageURL,
		&thumb.StoragePath,
		&thumb.Status,
		&thumb.CreatedAt,
		&thumb.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &thumb, nil
}

func (s *PgStore) SetCompleted(ctx context.Context, id uuid.UUID, imageURL string) error {
	const query = `
		UPDATE thumbnails
		SET status = $2, image_url = $3, updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, StatusCompleted, imageURL)
	if err != nil {
		return fmt.Errorf("failed to complete thumbnail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrThumbnailNotFound
	}
	return nil
}

func (s *PgStore) SetFailed(ctx context.Context, id uuid.UUID) error {
	const query = `
		UPDATE thumbnails
		SET status = $2, updated_at = now()
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, StatusFailed)
	if err != nil {
		return fmt.Errorf("failed to mark thumbnail failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrThumbnailNotFound
	}
	return nil
}

func (s *PgStore) ListCompleted(ctx context.Context, userID uuid.UUID, limit int) ([]Thumbnail, error) {
	const query = `
		SELECT id, user_id, prompt, title, COALESCE(image_url, ''),
			COALESCE(storage_path, ''), status, created_at, updated_at
		FROM thumbnails
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, userID, StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list thumbnails: %w", err)
	}
	defer rows.Close()

	var out []Thumbnail
	for rows.Next() {
		thumb, err := scanThumbnail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *thumb)
	}
	return out, rows.Err()
}

func (s *PgStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	const query = `DELETE FROM thumbnails WHERE id = $1 AND user_id = $2`

	tag, err := s.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete thumbnail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrThumbnailNotFound
	}
	return nil
}
