package dto

import (
	"time"

	"app/internal/model"
)

// LimitDTO describes one quota as seen by the client.
type LimitDTO struct {
	Allowed   bool       `json:"allowed"`
	Unlimited bool       `json:"unlimited"`
	Remaining float64    `json:"remaining"`
	Limit     float64    `json:"limit"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// UsageSummaryResponse reports all three quotas for the authenticated user.
type UsageSummaryResponse struct {
	Messages     LimitDTO `json:"messages"`
	VoiceMinutes LimitDTO `json:"voice_minutes"`
	Photos       LimitDTO `json:"photos"`
}

// RateLimitResponse is the 429 body for denied chargeable actions.
type RateLimitResponse struct {
	Error     string     `json:"error"`
	LimitType string     `json:"limit_type"`
	Remaining float64    `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// LimitFromDecision converts a service decision into its wire form.
func LimitFromDecision(d model.LimitDecision) LimitDTO {
	return LimitDTO{
		Allowed:   d.Allowed,
		Unlimited: d.Unlimited,
		Remaining: d.Remaining,
		Limit:     d.Limit,
		ResetAt:   d.ResetAt,
	}
}
