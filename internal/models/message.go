package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users, optionally tied to a job
// they share.
type Message struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SenderID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID uuid.UUID  `gorm:"type:uuid;index;not null" json:"receiver_id"`
	JobID      *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`

	Text   string     `gorm:"type:text;not null" json:"text"`
	IsRead bool       `gorm:"default:false" json:"is_read"`
	ReadAt *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Sender   *User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Job      *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
}
