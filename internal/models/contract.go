package models

import (
	"time"

	"github.com/google/uuid"
)

type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// Contract is the binding agreement created when a proposal is accepted,
// or by the admin direct-hire path on private jobs (ProposalID nil).
// Value is copied from the proposal bid (or the job budget) at creation
// and never recomputed.
type Contract struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProposalID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"proposal_id,omitempty"`
	JobID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"job_id"`

	ClientID     uuid.UUID `gorm:"type:uuid;index;not null" json:"client_id"`
	FreelancerID uuid.UUID `gorm:"type:uuid;index;not null" json:"freelancer_id"`

	Value float64 `gorm:"type:numeric(12,2);not null" json:"value"`

	StartDate    time.Time  `json:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`

	Status ContractStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Proposal   *Proposal `gorm:"foreignKey:ProposalID" json:"proposal,omitempty"`
	Job        *Job      `gorm:"foreignKey:JobID" json:"job,omitempty"`
	Client     *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Freelancer *User     `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
}
