package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetwise/internal/models"
	"budgetwise/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewOwnerID returns a fresh owner identity.
func NewOwnerID() string {
	return uuid.New()
}

// Amount parses a decimal literal, failing the test on bad input.
func Amount(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

// CreateTestTransaction creates a transaction dated today.
func CreateTestTransaction(t *testing.T, db *gorm.DB, ownerID string, kind models.TransactionKind, amount, category string) *models.Transaction {
	t.Helper()
	return CreateTestTransactionOn(t, db, ownerID, kind, amount, category, time.Now())
}

// CreateTestTransactionOn creates a transaction on the given date.
func CreateTestTransactionOn(t *testing.T, db *gorm.DB, ownerID string, kind models.TransactionKind, amount, category string, date time.Time) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		OwnerID:     ownerID,
		Kind:        kind,
		Amount:      Amount(t, amount),
		Category:    category,
		Description: fmt.Sprintf("Test transaction %d", nextID()),
		Date:        models.DateOf(date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestBudget creates a monthly budget for the given category.
func CreateTestBudget(t *testing.T, db *gorm.DB, ownerID, category, limit string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		OwnerID:  ownerID,
		Category: category,
		Limit:    Amount(t, limit),
		Period:   models.BudgetPeriodMonthly,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestInvestment creates a stock holding without its offsetting expense.
func CreateTestInvestment(t *testing.T, db *gorm.DB, ownerID, amount string) *models.Investment {
	t.Helper()

	n := nextID()
	inv := &models.Investment{
		OwnerID:      ownerID,
		Type:         models.InvestmentTypeStock,
		Name:         fmt.Sprintf("Test Stock %d", n),
		Symbol:       fmt.Sprintf("TST%d", n),
		Amount:       Amount(t, amount),
		PurchaseDate: models.DateOf(time.Now()),
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv
}
