package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Expense is the persisted form of a shared expense. Monetary columns are
// integer minor units; the float64 fields live only in the request/response
// structs below.
type Expense struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID     uuid.UUID        `gorm:"type:uuid;index" json:"group_id"`
	Group       Group            `gorm:"foreignKey:GroupID" json:"-"`
	Description string           `gorm:"not null;size:255" json:"description"`
	AmountMinor int64            `gorm:"not null" json:"amount_minor"`
	Currency    string           `gorm:"not null;size:3" json:"currency"`
	Category    string           `gorm:"size:50" json:"category"`            // food, transport, rent, utilities, entertainment, other
	SplitType   string           `gorm:"not null;size:20" json:"split_type"` // equal, exact, percentage, shares
	Settled     bool             `gorm:"default:false" json:"settled"`
	Notes       string           `json:"notes,omitempty"`
	ExpenseDate time.Time        `gorm:"type:date;default:CURRENT_DATE" json:"expense_date"`
	Splits      []ExpenseSplit   `gorm:"foreignKey:ExpenseID" json:"splits,omitempty"`
	Payments    []ExpensePayment `gorm:"foreignKey:ExpenseID" json:"payments,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// ExpenseSplit stores one participant's computed share. OwedMinor and
// PaidMinor are derived by the ledger engine and rewritten on every edit;
// they are never updated directly.
type ExpenseSplit struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID  uuid.UUID `gorm:"type:uuid;index" json:"expense_id"`
	UserID     uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Position   int       `gorm:"not null;default:0" json:"position"` // participant order, authoritative for remainder placement
	SplitValue int64     `json:"split_value"`                        // basis points, minor units, or share count depending on split type
	OwedMinor  int64     `gorm:"not null" json:"owed_minor"`
	PaidMinor  int64     `gorm:"not null;default:0" json:"paid_minor"`
	CreatedAt  time.Time `json:"created_at"`
}

func (es *ExpenseSplit) BeforeCreate(tx *gorm.DB) error {
	if es.ID == uuid.Nil {
		es.ID = uuid.New()
	}
	return nil
}

// ExpensePayment records one payer's contribution. An expense may have
// several payers.
type ExpensePayment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseID   uuid.UUID `gorm:"type:uuid;index" json:"expense_id"`
	UserID      uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	AmountMinor int64     `gorm:"not null" json:"amount_minor"`
	CreatedAt   time.Time `json:"created_at"`
}

func (ep *ExpensePayment) BeforeCreate(tx *gorm.DB) error {
	if ep.ID == uuid.Nil {
		ep.ID = uuid.New()
	}
	return nil
}

// Request structs. Amounts arrive as major-unit floats and are converted to
// minor units once, at the handler boundary.
type CreateExpenseRequest struct {
	Description string       `json:"description" binding:"required"`
	Amount      float64      `json:"amount" binding:"required,gt=0"`
	Currency    string       `json:"currency"`
	Category    string       `json:"category"`
	SplitType   string       `json:"split_type" binding:"required,oneof=equal exact percentage shares"`
	Notes       string       `json:"notes"`
	ExpenseDate string       `json:"expense_date"` // YYYY-MM-DD
	Splits      []SplitInput `json:"splits"`       // required for exact, percentage, shares
	Payers      []PayerInput `json:"payers"`       // defaults to the submitting user paying the full amount
}

type SplitInput struct {
	UserID string  `json:"user_id" binding:"required"`
	Value  float64 `json:"value"` // exact amount, percentage, or share count
}

type PayerInput struct {
	UserID string  `json:"user_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type UpdateExpenseRequest struct {
	Description string       `json:"description"`
	Amount      float64      `json:"amount"`
	Category    string       `json:"category"`
	SplitType   string       `json:"split_type"`
	Notes       string       `json:"notes"`
	Splits      []SplitInput `json:"splits"`
	Payers      []PayerInput `json:"payers"`
}

type SettleExpenseRequest struct {
	Settled *bool `json:"settled" binding:"required"`
}

// Responses carry both minor units (authoritative) and a major-unit float
// for display convenience.
type ExpenseResponse struct {
	ID          uuid.UUID       `json:"id"`
	GroupID     uuid.UUID       `json:"group_id"`
	Description string          `json:"description"`
	Amount      float64         `json:"amount"`
	AmountMinor int64           `json:"amount_minor"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	SplitType   string          `json:"split_type"`
	Settled     bool            `json:"settled"`
	Notes       string          `json:"notes,omitempty"`
	ExpenseDate time.Time       `json:"expense_date"`
	Splits      []SplitResponse `json:"splits"`
	Payers      []PayerResponse `json:"payers"`
	CreatedAt   time.Time       `json:"created_at"`
}

type SplitResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	UserName   string    `json:"user_name"`
	OwedAmount float64   `json:"owed_amount"`
	PaidAmount float64   `json:"paid_amount"`
	NetAmount  float64   `json:"net_amount"`
	OwedMinor  int64     `json:"owed_minor"`
	PaidMinor  int64     `json:"paid_minor"`
}

type PayerResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	UserName    string    `json:"user_name"`
	Amount      float64   `json:"amount"`
	AmountMinor int64     `json:"amount_minor"`
}
