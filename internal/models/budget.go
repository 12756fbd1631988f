package models

import (
	"github.com/shopspring/decimal"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly BudgetPeriod = "monthly"
	BudgetPeriodYearly  BudgetPeriod = "yearly"
)

// Budget caps spending for a category over a period. Category is matched
// against Transaction.Category; budgets and transactions never cascade.
type Budget struct {
	Base
	OwnerID  string          `gorm:"size:64;not null;index" json:"owner_id"`
	Category string          `gorm:"size:100;not null" json:"category"`
	Limit    decimal.Decimal `gorm:"column:limit_amount;type:decimal(18,2);not null" json:"limit"`
	Period   BudgetPeriod    `gorm:"size:16;not null" json:"period"`
}

// BudgetInput creates a budget when ID is empty, otherwise edits it.
type BudgetInput struct {
	ID       string          `json:"id,omitempty"`
	Category string          `json:"category" binding:"required,min=1,max=100" validate:"required,min=1,max=100"`
	Limit    decimal.Decimal `json:"limit" binding:"gte=0" validate:"gte=0"`
	Period   BudgetPeriod    `json:"period" binding:"required,budget_period" validate:"required,budget_period"`
}
