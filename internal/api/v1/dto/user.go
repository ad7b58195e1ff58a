package dto

import "time"

type UserCreateDTO struct {
	Name      string `json:"name" validate:"required,min=1,max=100"`
	Email     string `json:"email" validate:"required,email"`
	AvatarURL string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

type UserResponseDTO struct {
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	AvatarURL          string    `json:"avatar_url,omitempty"`
	SubscriptionTier   string    `json:"subscription_tier"`
	SubscriptionStatus string    `json:"subscription_status"`
	CreatedAt          time.Time `json:"created_at"`
}

// SubscriptionUpdateDTO is posted by the billing webhook relay.
type SubscriptionUpdateDTO struct {
	Tier   string `json:"tier" validate:"required,oneof=FREE PREMIUM"`
	Status string `json:"status" validate:"required,oneof=ACTIVE CANCELLED EXPIRED TRIALING"`
}
