package model

import "time"

// SubscriptionTier is the plan level that gates usage limits.
type SubscriptionTier string

const (
	TierFree    SubscriptionTier = "FREE"
	TierPremium SubscriptionTier = "PREMIUM"
)

// SubscriptionStatus is the billing state of a subscription. It is stored
// and surfaced to clients but not consulted for limit gating; the tier is
// the sole gating signal.
type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "ACTIVE"
	StatusCancelled SubscriptionStatus = "CANCELLED"
	StatusExpired   SubscriptionStatus = "EXPIRED"
	StatusTrialing  SubscriptionStatus = "TRIALING"
)

// User represents a parent account in the system
type User struct {
	UserID             string             `db:"user_id" json:"user_id"`
	Name               string             `db:"name" json:"name"`
	Email              string             `db:"email" json:"email"`
	AvatarURL          string             `db:"avatar_url" json:"avatar_url"`
	SubscriptionTier   SubscriptionTier   `db:"subscription_tier" json:"subscription_tier"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status" json:"subscription_status"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at" json:"updated_at"`
}
