package models

import (
	"time"

	"github.com/google/uuid"
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Proposal is a freelancer's bid on a job. Sequence numbers count the
// freelancer's submissions on that job (max 3); RevisionOfID chains a
// resubmission to the proposal it replaces.
type Proposal struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	JobID        uuid.UUID `gorm:"type:uuid;index;not null" json:"job_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	Description  string    `gorm:"type:text" json:"description"`
	Amount       float64   `gorm:"type:numeric(12,2);not null" json:"amount"`
	DeliveryDate time.Time `json:"delivery_date"`

	Status          ProposalStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	SequenceNumber  int            `gorm:"not null;default:1" json:"sequence_number"`
	RevisionOfID    *uuid.UUID     `gorm:"type:uuid" json:"revision_of_id,omitempty"`
	RevisionNote    string         `gorm:"type:text" json:"revision_note"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Job        *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Freelancer *User `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}
