package services

import (
	"time"

	"budgetwise/internal/models"
	"budgetwise/internal/pagination"
	"budgetwise/internal/usage"
)

// TransactionFilter holds optional filter parameters for listing transactions.
// From and To are inclusive calendar dates.
type TransactionFilter struct {
	From     *time.Time
	To       *time.Time
	Kind     *models.TransactionKind
	Category string
}

// TransactionServicer defines the contract for ledger writes and reads.
type TransactionServicer interface {
	CreateTransaction(ownerID string, input models.TransactionInput) (*models.Transaction, error)
	GetOwnerTransactions(ownerID string, filter TransactionFilter) ([]models.Transaction, error)
	GetTransactionByID(ownerID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ownerID, transactionID string, patch models.TransactionPatch) (*models.Transaction, error)
	DeleteTransaction(ownerID, transactionID string) error
	ResetTransactions(ownerID string) (int64, error)
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	SaveBudget(ownerID string, input models.BudgetInput) (*models.Budget, error)
	GetOwnerBudgets(ownerID string) ([]models.Budget, error)
	GetBudgetByID(ownerID, budgetID string) (*models.Budget, error)
	DeleteBudget(ownerID, budgetID string) error
	GetBudgetUsage(ownerID, budgetID string, now time.Time) (*usage.Usage, error)
}

// InvestmentServicer defines the contract for investment-related business logic.
type InvestmentServicer interface {
	RecordInvestment(ownerID string, input models.InvestmentInput) (*models.Investment, *models.Transaction, error)
	GetOwnerInvestments(ownerID string) ([]models.Investment, error)
	DeleteInvestment(ownerID, investmentID string) error
}

// AuditServicer defines the contract for the activity audit trail.
type AuditServicer interface {
	Record(ownerID, activityType, description string)
	List(ownerID string, page pagination.PageRequest) (*pagination.PageResponse[models.ActivityLog], error)
}
