package testutil_test

import (
	"testing"

	"budgetwise/internal/errors"
	"budgetwise/internal/models"
	"budgetwise/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"transactions", "budgets", "investments", "activity_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestTransaction(t, first, testutil.NewOwnerID(), models.TransactionKindIncome, "10", "Salary")

	var count int64
	if err := second.Model(&models.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected isolated database, found %d rows", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	owner := testutil.NewOwnerID()

	tx := testutil.CreateTestTransaction(t, db, owner, models.TransactionKindExpense, "12.50", "Food")
	if tx.ID == "" {
		t.Fatal("transaction should have an ID")
	}
	testutil.AssertAmount(t, tx.Amount, "12.5")

	budget := testutil.CreateTestBudget(t, db, owner, "Food", "5000")
	if budget.Period != models.BudgetPeriodMonthly {
		t.Errorf("expected monthly budget, got %s", budget.Period)
	}

	inv := testutil.CreateTestInvestment(t, db, owner, "1000")
	if inv.Type != models.InvestmentTypeStock {
		t.Errorf("expected stock investment, got %s", inv.Type)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrBudgetNotFound, "custom message")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
