// Package usage evaluates how much of each budget has been consumed.
package usage

import (
	"time"

	"budgetwise/internal/models"

	"github.com/shopspring/decimal"
)

// Status classifies a budget's consumption.
type Status string

const (
	StatusUnder   Status = "under"
	StatusAtLimit Status = "at_limit"
	StatusOver    Status = "over"
)

var hundred = decimal.NewFromInt(100)

// Usage is the consumption of one budget within its current period.
// Percentage is not capped; BarWidth is the display value.
type Usage struct {
	BudgetID   string              `json:"budget_id"`
	Category   string              `json:"category"`
	Period     models.BudgetPeriod `json:"period"`
	Limit      decimal.Decimal     `json:"limit"`
	Used       decimal.Decimal     `json:"used"`
	Remaining  decimal.Decimal     `json:"remaining"`
	Percentage int64               `json:"percentage"`
	Status     Status              `json:"status"`
}

// BarWidth is Percentage clamped to [0, 100].
func (u Usage) BarWidth() int64 {
	switch {
	case u.Percentage < 0:
		return 0
	case u.Percentage > 100:
		return 100
	default:
		return u.Percentage
	}
}

// ExpenseSource sums expense amounts for a category in [from, to).
type ExpenseSource interface {
	CategoryExpenses(category string, from, to time.Time) decimal.Decimal
}

// Window returns the half-open [from, to) range of the period containing now:
// the calendar month for monthly budgets, the calendar year for yearly ones.
// Bounds are UTC midnights, matching how transaction dates are stored.
func Window(period models.BudgetPeriod, now time.Time) (time.Time, time.Time) {
	y, m, _ := now.Date()
	if period == models.BudgetPeriodYearly {
		from := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// Compute derives usage figures for budget b given the amount already spent.
func Compute(b models.Budget, used decimal.Decimal) Usage {
	u := Usage{
		BudgetID:  b.ID,
		Category:  b.Category,
		Period:    b.Period,
		Limit:     b.Limit,
		Used:      used,
		Remaining: b.Limit.Sub(used),
	}

	if b.Limit.IsZero() {
		// No division by zero: any spend against a zero limit is fully used.
		if used.IsPositive() {
			u.Percentage = 100
		}
	} else {
		u.Percentage = used.Div(b.Limit).Mul(hundred).Round(0).IntPart()
	}

	switch used.Cmp(b.Limit) {
	case 1:
		u.Status = StatusOver
	case 0:
		u.Status = StatusAtLimit
	default:
		u.Status = StatusUnder
	}
	if b.Limit.IsZero() && used.IsZero() {
		u.Status = StatusUnder
	}
	return u
}

// Evaluate computes usage for every budget against src, in input order.
func Evaluate(budgets []models.Budget, src ExpenseSource, now time.Time) []Usage {
	result := make([]Usage, 0, len(budgets))
	for _, b := range budgets {
		from, to := Window(b.Period, now)
		result = append(result, Compute(b, src.CategoryExpenses(b.Category, from, to)))
	}
	return result
}
