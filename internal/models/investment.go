package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentType represents the kind of holding
type InvestmentType string

const (
	InvestmentTypeSIP        InvestmentType = "sip"
	InvestmentTypeStock      InvestmentType = "stock"
	InvestmentTypeMutualFund InvestmentType = "mutual_fund"
	InvestmentTypeCrypto     InvestmentType = "crypto"
	InvestmentTypeOther      InvestmentType = "other"
)

// InvestmentCategory is the transaction category of the expense recorded
// alongside every investment purchase.
const InvestmentCategory = "Investment"

// Investment represents a holding bought with money that also appears in the
// ledger as an expense (TransactionID links the two).
type Investment struct {
	Base
	OwnerID       string           `gorm:"size:64;not null;index" json:"owner_id"`
	Type          InvestmentType   `gorm:"size:16;not null" json:"type"`
	Name          string           `gorm:"size:100;not null" json:"name"`
	Amount        decimal.Decimal  `gorm:"type:decimal(18,2);not null" json:"amount"`
	Quantity      *decimal.Decimal `gorm:"type:decimal(24,8)" json:"quantity,omitempty"`
	Symbol        string           `gorm:"size:20" json:"symbol,omitempty"`
	PurchaseDate  time.Time        `gorm:"not null" json:"purchase_date"`
	TransactionID string           `gorm:"size:36" json:"transaction_id,omitempty"`
}

// InvestmentInput carries the fields of a new investment purchase.
type InvestmentInput struct {
	Type         InvestmentType   `json:"type" binding:"required,investment_type" validate:"required,investment_type"`
	Name         string           `json:"name" binding:"required,min=1,max=100" validate:"required,min=1,max=100"`
	Amount       decimal.Decimal  `json:"amount" binding:"required,gt=0" validate:"required,gt=0"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty" binding:"omitempty,gt=0" validate:"omitempty,gt=0"`
	Symbol       string           `json:"symbol,omitempty" binding:"max=20" validate:"max=20"`
	PurchaseDate time.Time        `json:"purchase_date"`
}
