package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChildRepository interface {
	CreateChild(ctx context.Context, c *model.Child) error
	GetChildByID(ctx context.Context, childID, userID string) (*model.Child, error)
	ListChildrenByUser(ctx context.Context, userID string) ([]model.Child, error)
	UpdateChild(ctx context.Context, childID, userID, name string, birthdate time.Time) (*model.Child, error)
	DeleteChild(ctx context.Context, childID, userID string) error
}

type childRepo struct {
	pool *pgxpool.Pool
}

func NewChildRepo(pool *pgxpool.Pool) ChildRepository {
	return &childRepo{pool: pool}
}

func (r *childRepo) CreateChild(ctx context.Context, c *model.Child) error {
	const q = `
        INSERT INTO children (user_id, name, birthdate, avatar_url)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q, c.UserID, c.Name, c.Birthdate, c.AvatarURL).Scan(
		&c.ID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating child for user %s: %w", c.UserID, err)
	}
	return nil
}

func (r *childRepo) GetChildByID(ctx context.Context, childID, userID string) (*model.Child, error) {
	const q = `
        SELECT id, user_id, name, birthdate, avatar_url, created_at, updated_at
        FROM children
        WHERE id = $1 AND user_id = $2
    `
	var c model.Child
	err := r.pool.QueryRow(ctx, q, childID, userID).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Birthdate,
		&c.AvatarURL,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching child %s: %w", childID, err)
	}
	return &c, nil
}

func (r *childRepo) ListChildrenByUser(ctx context.Context, userID string) ([]model.Child, error) {
	const q = `
        SELECT id, user_id, name, birthdate, avatar_url, created_at, updated_at
        FROM children
        WHERE user_id = $1
        ORDER BY birthdate DESC
    `
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("querying children for user %s: %w", userID, err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		var c model.Child
		if err := rows.Scan(
			&c.ID,
			&c.UserID,
			&c.Name,
			&c.Birthdate,
			&c.AvatarURL,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning child row: %w", err)
		}
		children = append(children, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating child rows: %w", err)
	}
	return children, nil
}

func (r *childRepo) UpdateChild(ctx context.Context, childID, userID, name string, birthdate time.Time) (*model.Child, error) {
	const q = `
        UPDATE children
        SET name = $3, birthdate = $4, updated_at = NOW()
        WHERE id = $1 AND user_id = $2
        RETURNING id, user_id, name, birthdate, avatar_url, created_at, updated_at
    `
	var c model.Child
	err := r.pool.QueryRow(ctx, q, childID, userID, name, birthdate).Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.Birthdate,
		&c.AvatarURL,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("updating child %s: %w", childID, err)
	}
	return &c, nil
}

func (r *childRepo) DeleteChild(ctx context.Context, childID, userID string) error {
	const q = `DELETE FROM children WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, q, childID, userID)
	if err != nil {
		return fmt.Errorf("deleting child %s: %w", childID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting child: child %s not found", childID)
	}
	return nil
}
