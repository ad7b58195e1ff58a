package dto

import "time"

type AchievementCreateDTO struct {
	TemplateID string     `json:"template_id" validate:"required"`
	AchievedAt *time.Time `json:"achieved_at,omitempty"`
	Note       *string    `json:"note,omitempty" validate:"omitempty,max=500"`
}

type AchievementResponseDTO struct {
	ID         string    `json:"id"`
	ChildID    string    `json:"child_id"`
	TemplateID string    `json:"template_id"`
	AchievedAt time.Time `json:"achieved_at"`
	Note       *string   `json:"note,omitempty"`
}
