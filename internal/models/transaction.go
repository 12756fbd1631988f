package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind represents the direction of a transaction
type TransactionKind string

const (
	TransactionKindIncome  TransactionKind = "income"
	TransactionKindExpense TransactionKind = "expense"
)

// Valid reports whether k is one of the known kinds.
func (k TransactionKind) Valid() bool {
	return k == TransactionKindIncome || k == TransactionKindExpense
}

// Transaction is a single ledger entry. Amount is always stored in the
// canonical currency, whatever the owner's display preference is.
type Transaction struct {
	Base
	OwnerID     string          `gorm:"size:64;not null;index" json:"owner_id"`
	Kind        TransactionKind `gorm:"size:16;not null" json:"kind"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Category    string          `gorm:"size:100;not null;index" json:"category"`
	Description string          `json:"description,omitempty"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
}

// TransactionInput carries the fields of a new transaction.
type TransactionInput struct {
	Kind        TransactionKind `json:"kind" binding:"required,transaction_kind" validate:"required,transaction_kind"`
	Amount      decimal.Decimal `json:"amount" binding:"required,gt=0" validate:"required,gt=0"`
	Category    string          `json:"category" binding:"required,min=1,max=100" validate:"required,min=1,max=100"`
	Description string          `json:"description" binding:"max=500" validate:"max=500"`
	Date        time.Time       `json:"date"`
}

// TransactionPatch carries a partial update. Nil fields are left untouched.
type TransactionPatch struct {
	Kind        *TransactionKind `json:"kind,omitempty" binding:"omitempty,transaction_kind" validate:"omitempty,transaction_kind"`
	Amount      *decimal.Decimal `json:"amount,omitempty" binding:"omitempty,gt=0" validate:"omitempty,gt=0"`
	Category    *string          `json:"category,omitempty" binding:"omitempty,min=1,max=100" validate:"omitempty,min=1,max=100"`
	Description *string          `json:"description,omitempty" binding:"omitempty,max=500" validate:"omitempty,max=500"`
	Date        *time.Time       `json:"date,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TransactionPatch) IsEmpty() bool {
	return p.Kind == nil && p.Amount == nil && p.Category == nil && p.Description == nil && p.Date == nil
}
