package model

import "time"

// LimitType selects which daily counter a limit check or increment applies
// to. A closed type rather than raw strings so a typo cannot silently pick
// the wrong counter.
type LimitType string

const (
	LimitMessage LimitType = "message"
	LimitVoice   LimitType = "voice"
	// LimitPhoto labels photo-quota decisions. Photos are a lifetime cap
	// counted by row existence, so it is not a valid daily counter selector.
	LimitPhoto LimitType = "photo"
)

// Valid reports whether lt selects a daily counter.
func (lt LimitType) Valid() bool {
	return lt == LimitMessage || lt == LimitVoice
}

// DailyUsage is the per-user per-UTC-day counter row. At most one row
// exists per (user_id, usage_date); it is created lazily on the first
// chargeable action of the day and never mutated once the day has passed.
type DailyUsage struct {
	UserID           string    `db:"user_id" json:"user_id"`
	UsageDate        time.Time `db:"usage_date" json:"usage_date"`
	MessagesUsed     int       `db:"messages_used" json:"messages_used"`
	VoiceMinutesUsed float64   `db:"voice_minutes_used" json:"voice_minutes_used"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// LimitDecision is the outcome of a limit check. A deny is a normal value,
// not an error.
type LimitDecision struct {
	Allowed   bool       `json:"allowed"`
	Unlimited bool       `json:"unlimited"`
	Remaining float64    `json:"remaining"`
	Limit     float64    `json:"limit"`
	ResetAt   *time.Time `json:"reset_at,omitempty"` // nil for lifetime quotas
}
