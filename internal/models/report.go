package models

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportStatusOpen     ReportStatus = "open"
	ReportStatusResolved ReportStatus = "resolved"
)

// Report is an abuse report filed by one user against another, optionally
// tied to a job. Admins review and resolve them.
type Report struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReporterID uuid.UUID  `gorm:"type:uuid;index;not null" json:"reporter_id"`
	ReportedID uuid.UUID  `gorm:"type:uuid;index;not null" json:"reported_id"`
	JobID      *uuid.UUID `gorm:"type:uuid;index" json:"job_id,omitempty"`

	Reason     string       `gorm:"type:text;not null" json:"reason"`
	Status     ReportStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`
	Resolution string       `gorm:"type:text" json:"resolution"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Reporter *User `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Reported *User `gorm:"foreignKey:ReportedID" json:"reported,omitempty"`
	Job      *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
}
