package model

import "time"

// Photo analysis lifecycle states.
const (
	PhotoStatusPending   = "pending"   // upload URL issued, object not yet confirmed
	PhotoStatusUploaded  = "uploaded"  // object confirmed, awaiting analysis
	PhotoStatusAnalyzing = "analyzing" // picked up by the analysis worker
	PhotoStatusAnalyzed  = "analyzed"
	PhotoStatusFailed    = "failed"
)

// Photo represents a stored baby photo. The lifetime photo quota is counted
// by row existence in this table, not by a daily counter.
type Photo struct {
	ID           string         `db:"id" json:"id"`
	UserID       string         `db:"user_id" json:"user_id"`
	ChildID      *string        `db:"child_id" json:"child_id,omitempty"`
	StoragePath  string         `db:"storage_path" json:"storage_path"`
	Category     *string        `db:"category" json:"category,omitempty"`
	Caption      *string        `db:"caption" json:"caption,omitempty"`
	Status       string         `db:"status" json:"status"`
	ErrorDetails map[string]any `db:"error_details" json:"error_details,omitempty"`
	TakenAt      *time.Time     `db:"taken_at" json:"taken_at,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}
