package repository

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MilestoneRepository tracks achieved milestones per child. Templates
// themselves are static and live in the service layer.
type MilestoneRepository interface {
	// UpsertAchievement records that a child reached a milestone. Recording
	// the same (child, template) pair twice keeps the earliest achieved_at.
	UpsertAchievement(ctx context.Context, childID, templateID string, achievedAt time.Time, note *string) (*model.ChildMilestone, error)
	ListAchievements(ctx context.Context, childID string) ([]model.ChildMilestone, error)
	DeleteAchievement(ctx context.Context, childID, templateID string) error
}

type milestoneRepo struct {
	pool *pgxpool.Pool
}

func NewMilestoneRepo(pool *pgxpool.Pool) MilestoneRepository {
	return &milestoneRepo{pool: pool}
}

func (r *milestoneRepo) UpsertAchievement(ctx context.Context, childID, templateID string, achievedAt time.Time, note *string) (*model.ChildMilestone, error) {
	const q = `
        INSERT INTO child_milestones (child_id, template_id, achieved_at, note)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (child_id, template_id) DO UPDATE
        SET achieved_at = LEAST(child_milestones.achieved_at, EXCLUDED.achieved_at),
            note = COALESCE(EXCLUDED.note, child_milestones.note)
        RETURNING id, child_id, template_id, achieved_at, note, created_at
    `
	var cm model.ChildMilestone
	err := r.pool.QueryRow(ctx, q, childID, templateID, achievedAt, note).Scan(
		&cm.ID,
		&cm.ChildID,
		&cm.TemplateID,
		&cm.AchievedAt,
		&cm.Note,
		&cm.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("recording milestone %s for child %s: %w", templateID, childID, err)
	}
	return &cm, nil
}

func (r *milestoneRepo) ListAchievements(ctx context.Context, childID string) ([]model.ChildMilestone, error) {
	const q = `
        SELECT id, child_id, template_id, achieved_at, note, created_at
        FROM child_milestones
        WHERE child_id = $1
        ORDER BY achieved_at ASC
    `
	rows, err := r.pool.Query(ctx, q, childID)
	if err != nil {
		return nil, fmt.Errorf("querying milestones for child %s: %w", childID, err)
	}
	defer rows.Close()

	var achievements []model.ChildMilestone
	for rows.Next() {
		var cm model.ChildMilestone
		if err := rows.Scan(
			&cm.ID,
			&cm.ChildID,
			&cm.TemplateID,
			&cm.AchievedAt,
			&cm.Note,
			&cm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning milestone row: %w", err)
		}
		achievements = append(achievements, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating milestone rows: %w", err)
	}
	return achievements, nil
}

func (r *milestoneRepo) DeleteAchievement(ctx context.Context, childID, templateID string) error {
	const q = `DELETE FROM child_milestones WHERE child_id = $1 AND template_id = $2`
	tag, err := r.pool.Exec(ctx, q, childID, templateID)
	if err != nil {
		return fmt.Errorf("deleting milestone %s for child %s: %w", templateID, childID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("deleting milestone: no achievement for template %s", templateID)
	}
	return nil
}
