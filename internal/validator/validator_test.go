package validator

import (
	"testing"

	"github.com/shopspring/decimal"

	"budgetwise/internal/models"
)

func TestNew(t *testing.T) {
	v := New()

	t.Run("valid_transaction", func(t *testing.T) {
		err := v.Struct(models.TransactionInput{
			Kind:     models.TransactionKindExpense,
			Amount:   decimal.RequireFromString("12.50"),
			Category: "Food",
		})
		if err != nil {
			t.Errorf("expected valid, got %v", err)
		}
	})

	t.Run("zero_amount_rejected", func(t *testing.T) {
		err := v.Struct(models.TransactionInput{
			Kind:     models.TransactionKindExpense,
			Amount:   decimal.Zero,
			Category: "Food",
		})
		if err == nil {
			t.Error("expected error for zero amount")
		}
	})

	t.Run("negative_amount_rejected", func(t *testing.T) {
		err := v.Struct(models.TransactionInput{
			Kind:     models.TransactionKindIncome,
			Amount:   decimal.NewFromInt(-5),
			Category: "Salary",
		})
		if err == nil {
			t.Error("expected error for negative amount")
		}
	})

	t.Run("unknown_kind_rejected", func(t *testing.T) {
		err := v.Struct(models.TransactionInput{
			Kind:     "transfer",
			Amount:   decimal.NewFromInt(5),
			Category: "Misc",
		})
		if err == nil {
			t.Error("expected error for unknown kind")
		}
	})

	t.Run("patch_pointer_amount", func(t *testing.T) {
		neg := decimal.NewFromInt(-1)
		if err := v.Struct(models.TransactionPatch{Amount: &neg}); err == nil {
			t.Error("expected error for negative patch amount")
		}
		if err := v.Struct(models.TransactionPatch{}); err != nil {
			t.Errorf("expected empty patch to be valid, got %v", err)
		}
	})

	t.Run("budget_zero_limit", func(t *testing.T) {
		err := v.Struct(models.BudgetInput{
			Category: "Fun",
			Limit:    decimal.Zero,
			Period:   models.BudgetPeriodYearly,
		})
		if err != nil {
			t.Errorf("expected zero limit to be valid, got %v", err)
		}
	})

	t.Run("budget_bad_period", func(t *testing.T) {
		err := v.Struct(models.BudgetInput{
			Category: "Fun",
			Limit:    decimal.NewFromInt(10),
			Period:   "weekly",
		})
		if err == nil {
			t.Error("expected error for weekly period")
		}
	})

	t.Run("investment_type", func(t *testing.T) {
		err := v.Struct(models.InvestmentInput{
			Type:   "bond",
			Name:   "Gov",
			Amount: decimal.NewFromInt(1),
		})
		if err == nil {
			t.Error("expected error for unknown investment type")
		}
	})

	t.Run("currency_code", func(t *testing.T) {
		if err := v.Var("EUR", "currency_code"); err != nil {
			t.Errorf("expected EUR to be valid, got %v", err)
		}
		if err := v.Var("XYZ", "currency_code"); err == nil {
			t.Error("expected XYZ to be rejected")
		}
	})
}
