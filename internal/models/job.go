package models

import (
	"time"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusOpen       JobStatus = "open"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job is a unit of work a client wants done. A job with TargetFreelancerID
// set is private: only that freelancer may submit proposals, and the admin
// direct-hire path may contract it without a proposal.
type Job struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`

	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Deadline    time.Time `json:"deadline"`
	Budget      float64   `gorm:"type:numeric(12,2);not null" json:"budget"`

	Status JobStatus `gorm:"type:varchar(20);default:'open';index" json:"status"`

	TargetFreelancerID *uuid.UUID `gorm:"type:uuid;index" json:"target_freelancer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client           *User      `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	TargetFreelancer *User      `gorm:"foreignKey:TargetFreelancerID" json:"target_freelancer,omitempty"`
	Proposals        []Proposal `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"proposals,omitempty"`
}

// IsPrivate reports whether the job is visible to a single freelancer only.
func (j *Job) IsPrivate() bool {
	return j.TargetFreelancerID != nil
}
