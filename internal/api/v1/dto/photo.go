package dto

import "time"

type PhotoUploadRequestDTO struct {
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp image/heic"`
}

type PhotoUploadResponseDTO struct {
	UploadURL   string `json:"upload_url"`
	StoragePath string `json:"storage_path"`
	ExpiresInS  int    `json:"expires_in_seconds"`
}

type PhotoConfirmDTO struct {
	StoragePath string     `json:"storage_path" validate:"required"`
	ChildID     *string    `json:"child_id,omitempty"`
	TakenAt     *time.Time `json:"taken_at,omitempty"`
}

type PhotoResponseDTO struct {
	ID        string     `json:"id"`
	ChildID   *string    `json:"child_id,omitempty"`
	Category  *string    `json:"category,omitempty"`
	Caption   *string    `json:"caption,omitempty"`
	Status    string     `json:"status"`
	ViewURL   string     `json:"view_url,omitempty"`
	TakenAt   *time.Time `json:"taken_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
