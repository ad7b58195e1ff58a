package repository

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository is the entitlement store: the user row carries the
// subscription tier and status that gate usage limits.
type UserRepository interface {
	CreateUser(ctx context.Context, u *model.User) error
	// GetUserByID returns nil, nil when no user exists with the given ID.
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpdateSubscription sets the user's tier and status. Driven by billing
	// webhooks upstream.
	UpdateSubscription(ctx context.Context, userID string, tier model.SubscriptionTier, status model.SubscriptionStatus) error
}

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepo{pool: pool}
}

func (r *userRepo) CreateUser(ctx context.Context, u *model.User) error {
	const q = `
        INSERT INTO users (user_id, name, email, avatar_url, subscription_tier, subscription_status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING user_id, name, email, avatar_url, subscription_tier, subscription_status, created_at, updated_at
    `
	err := r.pool.QueryRow(ctx, q, u.UserID, u.Name, u.Email, u.AvatarURL, u.SubscriptionTier, u.SubscriptionStatus).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.SubscriptionTier,
		&u.SubscriptionStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating user %s: %w", u.UserID, err)
	}
	return nil
}

func (r *userRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	const q = `
        SELECT user_id, name, email, avatar_url, subscription_tier, subscription_status, created_at, updated_at
        FROM users
        WHERE user_id = $1
    `
	var u model.User
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&u.UserID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.SubscriptionTier,
		&u.SubscriptionStatus,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching user %s: %w", id, err)
	}
	return &u, nil
}

func (r *userRepo) UpdateSubscription(ctx context.Context, userID string, tier model.SubscriptionTier, status model.SubscriptionStatus) error {
	const q = `
        UPDATE users
        SET subscription_tier = $2, subscription_status = $3, updated_at = NOW()
        WHERE user_id = $1
    `
	tag, err := r.pool.Exec(ctx, q, userID, tier, status)
	if err != nil {
		return fmt.Errorf("updating subscription for user %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating subscription: user %s not found", userID)
	}
	return nil
}
