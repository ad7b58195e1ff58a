package model

import "time"

// MilestoneCategory groups developmental milestones by domain.
type MilestoneCategory string

const (
	MilestoneMotor     MilestoneCategory = "motor"
	MilestoneLanguage  MilestoneCategory = "language"
	MilestoneSocial    MilestoneCategory = "social"
	MilestoneCognitive MilestoneCategory = "cognitive"
)

// MilestoneTemplate is a static age-banded developmental milestone. A
// template applies to a child whose age in months falls inside
// [MinAgeMonths, MaxAgeMonths].
type MilestoneTemplate struct {
	ID           string            `json:"id"`
	Category     MilestoneCategory `json:"category"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	MinAgeMonths int               `json:"min_age_months"`
	MaxAgeMonths int               `json:"max_age_months"`
}

// AppliesTo reports whether the template's age band contains the given age.
func (t MilestoneTemplate) AppliesTo(ageMonths int) bool {
	return ageMonths >= t.MinAgeMonths && ageMonths <= t.MaxAgeMonths
}

// ChildMilestone records that a child achieved a milestone template.
type ChildMilestone struct {
	ID         string    `db:"id" json:"id"`
	ChildID    string    `db:"child_id" json:"child_id"`
	TemplateID string    `db:"template_id" json:"template_id"`
	AchievedAt time.Time `db:"achieved_at" json:"achieved_at"`
	Note       *string   `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
