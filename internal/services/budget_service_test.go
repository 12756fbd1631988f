package services

import (
	"testing"
	"time"

	"budgetwise/internal/models"
	"budgetwise/internal/testutil"
	"budgetwise/internal/usage"
)

func TestSaveBudget(t *testing.T) {
	t.Run("creates_when_id_empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		feed := &recordingFeed{}
		svc := NewBudgetService(db, feed)
		owner := testutil.NewOwnerID()

		budget, err := svc.SaveBudget(owner, models.BudgetInput{
			Category: "Food",
			Limit:    testutil.Amount(t, "5000"),
			Period:   models.BudgetPeriodMonthly,
		})
		testutil.AssertNoError(t, err)
		if budget.ID == "" {
			t.Fatal("expected ID to be assigned")
		}
		events := feed.Events()
		if len(events) != 1 || events[0].Kind != models.ChangeInsert || events[0].Budget == nil {
			t.Fatalf("expected insert event with record, got %+v", events)
		}
	})

	t.Run("edits_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		feed := &recordingFeed{}
		svc := NewBudgetService(db, feed)
		owner := testutil.NewOwnerID()
		existing := testutil.CreateTestBudget(t, db, owner, "Food", "100")

		budget, err := svc.SaveBudget(owner, models.BudgetInput{
			ID:       existing.ID,
			Category: "Food",
			Limit:    testutil.Amount(t, "250"),
			Period:   models.BudgetPeriodYearly,
		})
		testutil.AssertNoError(t, err)
		if budget.ID != existing.ID {
			t.Errorf("expected same ID, got %s", budget.ID)
		}
		testutil.AssertAmount(t, budget.Limit, "250")
		if budget.Period != models.BudgetPeriodYearly {
			t.Errorf("expected yearly, got %s", budget.Period)
		}
		if events := feed.Events(); len(events) != 1 || events[0].Kind != models.ChangeUpdate {
			t.Fatalf("expected update event, got %+v", events)
		}

		all, err := svc.GetOwnerBudgets(owner)
		testutil.AssertNoError(t, err)
		if len(all) != 1 {
			t.Errorf("expected 1 budget, got %d", len(all))
		}
	})

	t.Run("zero_limit_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})

		_, err := svc.SaveBudget(testutil.NewOwnerID(), models.BudgetInput{
			Category: "Fun",
			Limit:    testutil.Amount(t, "0"),
			Period:   models.BudgetPeriodMonthly,
		})
		testutil.AssertNoError(t, err)
	})

	t.Run("negative_limit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})

		_, err := svc.SaveBudget(testutil.NewOwnerID(), models.BudgetInput{
			Category: "Fun",
			Limit:    testutil.Amount(t, "-1"),
			Period:   models.BudgetPeriodMonthly,
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})

		_, err := svc.SaveBudget(testutil.NewOwnerID(), models.BudgetInput{
			Category: "Fun",
			Limit:    testutil.Amount(t, "10"),
			Period:   "weekly",
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("edit_other_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})
		existing := testutil.CreateTestBudget(t, db, testutil.NewOwnerID(), "Food", "100")

		_, err := svc.SaveBudget(testutil.NewOwnerID(), models.BudgetInput{
			ID:       existing.ID,
			Category: "Food",
			Limit:    testutil.Amount(t, "1"),
			Period:   models.BudgetPeriodMonthly,
		})
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestDeleteBudget(t *testing.T) {
	t.Run("keeps_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		feed := &recordingFeed{}
		svc := NewBudgetService(db, feed)
		txSvc := NewTransactionService(db, feed)
		owner := testutil.NewOwnerID()
		budget := testutil.CreateTestBudget(t, db, owner, "Food", "100")
		testutil.CreateTestTransaction(t, db, owner, models.TransactionKindExpense, "40", "Food")

		testutil.AssertNoError(t, svc.DeleteBudget(owner, budget.ID))

		_, err := svc.GetBudgetByID(owner, budget.ID)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")

		txs, err := txSvc.GetOwnerTransactions(owner, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if len(txs) != 1 {
			t.Errorf("expected transaction to survive, got %d", len(txs))
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})

		err := svc.DeleteBudget(testutil.NewOwnerID(), "missing")
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}

func TestGetBudgetUsage(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	t.Run("monthly_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})
		owner := testutil.NewOwnerID()
		budget := testutil.CreateTestBudget(t, db, owner, "Food", "5000")

		testutil.CreateTestTransactionOn(t, db, owner, models.TransactionKindExpense, "4000", "Food", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, db, owner, models.TransactionKindExpense, "500", "Food", time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
		// Outside the window, wrong kind, or wrong category.
		testutil.CreateTestTransactionOn(t, db, owner, models.TransactionKindExpense, "700", "Food", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, db, owner, models.TransactionKindIncome, "900", "Food", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
		testutil.CreateTestTransactionOn(t, db, owner, models.TransactionKindExpense, "900", "Rent", time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))

		u, err := svc.GetBudgetUsage(owner, budget.ID, now)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, u.Used, "4500")
		testutil.AssertAmount(t, u.Remaining, "500")
		if u.Percentage != 90 {
			t.Errorf("expected 90%%, got %d", u.Percentage)
		}
		if u.Status != usage.StatusUnder {
			t.Errorf("expected under, got %s", u.Status)
		}
	})

	t.Run("no_spending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})
		owner := testutil.NewOwnerID()
		budget := testutil.CreateTestBudget(t, db, owner, "Food", "100")

		u, err := svc.GetBudgetUsage(owner, budget.ID, now)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, u.Used, "0")
		if u.Percentage != 0 {
			t.Errorf("expected 0%%, got %d", u.Percentage)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewBudgetService(db, &recordingFeed{})

		_, err := svc.GetBudgetUsage(testutil.NewOwnerID(), "missing", now)
		testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	})
}
