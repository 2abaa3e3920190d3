package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusApproved   PaymentStatus = "approved"
	PaymentStatusRejected   PaymentStatus = "rejected"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// Payment is the local mirror of a gateway transaction, at most one per
// contract. ExternalID is the gateway's transaction id; it stays nil until
// the gateway first reports the transaction and is unique once set.
// GatewayPayload keeps the last raw gateway snapshot for audit.
type Payment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"contract_id"`
	PayerID    uuid.UUID `gorm:"type:uuid;index;not null" json:"payer_id"`

	Amount float64 `gorm:"type:numeric(12,2);not null" json:"amount"`

	Status     PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	ExternalID *string       `gorm:"type:varchar(64);uniqueIndex" json:"external_id,omitempty"`

	Notes          string         `gorm:"type:text" json:"notes"`
	GatewayPayload datatypes.JSON `json:"gateway_payload,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Payer    *User     `gorm:"foreignKey:PayerID" json:"payer,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
