package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Settlement is an executed payment between two members, recorded after the
// fact. It offsets their expense balances but is not itself an expense.
type Settlement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	PaidBy      uuid.UUID `gorm:"type:uuid" json:"paid_by"`
	Payer       User      `gorm:"foreignKey:PaidBy" json:"payer,omitempty"`
	PaidTo      uuid.UUID `gorm:"type:uuid" json:"paid_to"`
	Payee       User      `gorm:"foreignKey:PaidTo" json:"payee,omitempty"`
	AmountMinor int64     `gorm:"not null" json:"amount_minor"`
	Currency    string    `gorm:"not null;size:3" json:"currency"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Settlement) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type CreateSettlementRequest struct {
	PaidTo   string  `json:"paid_to" binding:"required"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency"`
	Notes    string  `json:"notes"`
}
