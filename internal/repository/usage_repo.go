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

// UsageRepository reads and mutates the per-user per-UTC-day counter rows.
// Rows are created lazily on first increment; the (user_id, usage_date)
// pair is unique and rows are never deleted here.
type UsageRepository interface {
	// GetDailyUsage returns the counter row for the given UTC day, or nil if
	// no chargeable action happened that day yet.
	GetDailyUsage(ctx context.Context, userID string, day time.Time) (*model.DailyUsage, error)
	// IncrementDailyUsage adds the given deltas to the row for (userID, day),
	// creating it if absent. The upsert is a single statement so concurrent
	// increments for the same user and day are never lost.
	IncrementDailyUsage(ctx context.Context, userID string, day time.Time, messages int, voiceMinutes float64) error
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) GetDailyUsage(ctx context.Context, userID string, day time.Time) (*model.DailyUsage, error) {
	const q = `
        SELECT user_id, usage_date, messages_used, voice_minutes_used, created_at, updated_at
        FROM daily_usage
        WHERE user_id = $1 AND usage_date = $2
    `
	var du model.DailyUsage
	err := r.pool.QueryRow(ctx, q, userID, day).Scan(
		&du.UserID,
		&du.UsageDate,
		&du.MessagesUsed,
		&du.VoiceMinutesUsed,
		&du.CreatedAt,
		&du.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetching daily usage for user %s: %w", userID, err)
	}
	return &du, nil
}

func (r *usageRepo) IncrementDailyUsage(ctx context.Context, userID string, day time.Time, messages int, voiceMinutes float64) error {
	// Increment-on-upsert in one statement. A read-modify-write here would
	// lose updates under concurrent requests for the same user and day.
	const q = `
        INSERT INTO daily_usage (user_id, usage_date, messages_used, voice_minutes_used)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id, usage_date) DO UPDATE
        SET messages_used      = daily_usage.messages_used + EXCLUDED.messages_used,
            voice_minutes_used = daily_usage.voice_minutes_used + EXCLUDED.voice_minutes_used,
            updated_at         = NOW()
    `
	if _, err := r.pool.Exec(ctx, q, userID, day, messages, voiceMinutes); err != nil {
		return fmt.Errorf("incrementing daily usage for user %s: %w", userID, err)
	}
	return nil
}
