package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted fire-and-forget message to a user. The link
// points at the related resource in the frontend.
type Notification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`

	Message string `gorm:"type:text;not null" json:"message"`
	Link    string `gorm:"size:255" json:"link"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
