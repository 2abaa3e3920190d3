package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is one party's review of the other after a contract completes.
// One rating per (contract, author).
type Rating struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractID uuid.UUID `gorm:"type:uuid;index:idx_ratings_contract_author,unique;not null" json:"contract_id"`
	AuthorID   uuid.UUID `gorm:"type:uuid;index:idx_ratings_contract_author,unique;not null" json:"author_id"`
	TargetID   uuid.UUID `gorm:"type:uuid;index;not null" json:"target_id"`

	Score   int    `gorm:"not null" json:"score"` // 1-5
	Comment string `gorm:"type:text" json:"comment"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contract *Contract `gorm:"foreignKey:ContractID" json:"contract,omitempty"`
	Author   *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Target   *User     `gorm:"foreignKey:TargetID" json:"target,omitempty"`
}

func (r *Rating) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
