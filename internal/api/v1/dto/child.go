package dto

import "time"

type ChildCreateDTO struct {
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Birthdate time.Time `json:"birthdate" validate:"required"`
	AvatarURL string    `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

type ChildUpdateDTO struct {
	Name      string    `json:"name" validate:"required,min=1,max=100"`
	Birthdate time.Time `json:"birthdate" validate:"required"`
}

type ChildResponseDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Birthdate time.Time `json:"birthdate"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	AgeMonths int       `json:"age_months"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
