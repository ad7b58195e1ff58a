package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PhotoRepository stores photo rows. The lifetime photo quota is derived
// from row counts here; there is no separate counter to increment.
type PhotoRepository interface {
	CreatePhoto(ctx context.Context, p *model.Photo) error
	GetPhotoByID(ctx context.Context, photoID, userID string) (*model.Photo, error)
	ListPhotosByUser(ctx context.Context, userID string, limit, offset int) ([]model.Photo, error)
	// CountPhotosByUser counts all of the user's photo rows regardless of
	// when they were created. The photo cap is lifetime, not daily.
	CountPhotosByUser(ctx context.Context, userID string) (int, error)
	UpdateStatus(ctx context.Context, photoID, status string) error
	// SetAnalysis records the vision result and marks the photo analyzed.
	SetAnalysis(ctx context.Context, photoID, category, caption string) error
	// SetFailed marks the photo failed with structured error details.
	SetFailed(ctx context.Context, photoID string, details map[string]string) error
	DeletePhoto(ctx context.Context, photoID, userID string) error
}

type photoRepo struct {
	pool *pgxpool.Pool
}

func NewPhotoRepo(pool *pgxpool.Pool) PhotoRepository {
	return &photoRepo{pool: pool}
}

func (r *photoRepo) CreatePhoto(ctx context.Context, p *model.Photo) error {
	const q = `
        INSERT INTO photos (user_id, child_id, storage_path, status, taken_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q, p.UserID, p.ChildID, p.StoragePath, p.Status, p.TakenAt).Scan(
		&p.ID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating photo for user %s: %w", p.UserID, err)
	}
	return nil
}

func (r *photoRepo) GetPhotoByID(ctx context.Context, photoID, userID string) (*model.Photo, error) {
	const q = `
        SELECT id, user_id, child_id, storage_path, category, caption, status, error_details, taken_at, created_at, updated_at
        FROM photos
        WHERE id = $1 AND user_id = $2
    `
	var p model.Photo
	var rawDetails []byte
	err := r.pool.QueryRow(ctx, q, photoID, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.ChildID,
		&p.StoragePath,
		&p.Category,
		&p.Caption,
		&p.Status,
		&rawDetails,
		&p.TakenAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching photo %s: %w", photoID, err)
	}
	if len(rawDetails) > 0 {
		if err := json.Unmarshal(rawDetails, &p.ErrorDetails); err != nil {
			return nil, fmt.Errorf("unmarshal error_details for photo %s: %w", photoID, err)
		}
	}
	return &p, nil
}

func (r *photoRepo) ListPhotosByUser(ctx context.Context, userID string, limit, offset int) ([]model.Photo, error) {
	const q = `
        SELECT id, user_id, child_id, storage_path, category, caption, status, taken_at, created_at, updated_at
        FROM photos
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying photos for user %s: %w", userID, err)
	}
	defer rows.Close()

	var photos []model.Photo
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.ChildID,
			&p.StoragePath,
			&p.Category,
			&p.Caption,
			&p.Status,
			&p.TakenAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning photo row: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating photo rows: %w", err)
	}
	return photos, nil
}

func (r *photoRepo) CountPhotosByUser(ctx context.Context, userID string) (int, error) {
	const q = `SELECT COUNT(*) FROM photos WHERE user_id = $1`
	var count int
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting photos for user %s: %w", userID, err)
	}
	return count, nil
}

func (r *photoRepo) UpdateStatus(ctx context.Context, photoID, status string) error {
	const q = `UPDATE photos SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, photoID, status); err != nil {
		return fmt.Errorf("updating status for photo %s: %w", photoID, err)
	}
	return nil
}

func (r *photoRepo) SetAnalysis(ctx context.Context, photoID, category, caption string) error {
	const q = `
        UPDATE photos
        SET category = $2, caption = $3, status = 'analyzed', error_details = NULL, updated_at = NOW()
        WHERE id = $1
    `
	if _, err := r.pool.Exec(ctx, q, photoID, category, caption); err != nil {
		return fmt.Errorf("storing analysis for photo %s: %w", photoID, err)
	}
	return nil
}

func (r *photoRepo) SetFailed(ctx context.Context, photoID string, details map[string]string) error {
	detailsBytes, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal error details for photo %s: %w", photoID, err)
	}
	const q = `UPDATE photos SET status = 'failed', error_details = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, q, photoID, detailsBytes); err != nil {
		return fmt.Errorf("marking photo %s failed: %w", photoID, err)
	}
	return nil
}

func (r *photoRepo) DeletePhoto(ctx context.Context, photoID, userID string) error {
	const q = `DELETE FROM photos WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, photoID, userID)
	if err != nil {
		return fmt.Errorf("deleting photo %s: %w", photoID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting photo: photo %s not found", photoID)
	}
	return nil
}
