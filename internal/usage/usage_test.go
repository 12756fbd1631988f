package usage

import (
	"testing"
	"time"

	"budgetwise/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	category string
	date     time.Time
	amount   decimal.Decimal
}

// sliceSource is a minimal ExpenseSource over a fixed list of expenses.
type sliceSource []entry

func (s sliceSource) CategoryExpenses(category string, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s {
		if e.category == category && !e.date.Before(from) && e.date.Before(to) {
			total = total.Add(e.amount)
		}
	}
	return total
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindow(t *testing.T) {
	now := time.Date(2026, time.October, 18, 15, 30, 0, 0, time.UTC)

	from, to := Window(models.BudgetPeriodMonthly, now)
	assert.Equal(t, day(2026, time.October, 1), from)
	assert.Equal(t, day(2026, time.November, 1), to)

	from, to = Window(models.BudgetPeriodYearly, now)
	assert.Equal(t, day(2026, time.January, 1), from)
	assert.Equal(t, day(2027, time.January, 1), to)

	// December rolls into the next year.
	from, to = Window(models.BudgetPeriodMonthly, day(2026, time.December, 31))
	assert.Equal(t, day(2026, time.December, 1), from)
	assert.Equal(t, day(2027, time.January, 1), to)
}

func TestComputeFoodScenario(t *testing.T) {
	b := models.Budget{Category: "Food", Limit: decimal.NewFromInt(5000), Period: models.BudgetPeriodMonthly}

	u := Compute(b, decimal.NewFromInt(4500))

	assert.True(t, u.Used.Equal(decimal.NewFromInt(4500)))
	assert.Equal(t, int64(90), u.Percentage)
	assert.True(t, u.Remaining.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, StatusUnder, u.Status)
}

func TestComputeZeroLimit(t *testing.T) {
	b := models.Budget{Category: "Fun", Limit: decimal.Zero}

	u := Compute(b, decimal.NewFromInt(1))
	assert.Equal(t, int64(100), u.Percentage)
	assert.Equal(t, StatusOver, u.Status)

	u = Compute(b, decimal.Zero)
	assert.Equal(t, int64(0), u.Percentage)
	assert.Equal(t, StatusUnder, u.Status)
}

func TestComputeOverBudgetIsUncapped(t *testing.T) {
	b := models.Budget{Category: "Travel", Limit: decimal.NewFromInt(200)}

	u := Compute(b, decimal.NewFromInt(300))

	assert.Equal(t, int64(150), u.Percentage)
	assert.Equal(t, int64(100), u.BarWidth())
	assert.True(t, u.Remaining.Equal(decimal.NewFromInt(-100)))
	assert.Equal(t, StatusOver, u.Status)
}

func TestComputeRounding(t *testing.T) {
	b := models.Budget{Limit: decimal.NewFromInt(3)}
	assert.Equal(t, int64(33), Compute(b, decimal.NewFromInt(1)).Percentage)
	assert.Equal(t, int64(67), Compute(b, decimal.NewFromInt(2)).Percentage)
	assert.Equal(t, StatusAtLimit, Compute(b, decimal.NewFromInt(3)).Status)
}

func TestEvaluate(t *testing.T) {
	now := day(2026, time.October, 18)
	src := sliceSource{
		{"Food", day(2026, time.October, 2), decimal.NewFromInt(100)},
		{"Food", day(2026, time.September, 30), decimal.NewFromInt(900)},
		{"Food", day(2026, time.March, 1), decimal.NewFromInt(50)},
		{"Rent", day(2026, time.October, 1), decimal.NewFromInt(1200)},
	}
	budgets := []models.Budget{
		{Base: models.Base{ID: "b1"}, Category: "Food", Limit: decimal.NewFromInt(500), Period: models.BudgetPeriodMonthly},
		{Base: models.Base{ID: "b2"}, Category: "Food", Limit: decimal.NewFromInt(2000), Period: models.BudgetPeriodYearly},
		{Base: models.Base{ID: "b3"}, Category: "Gym", Limit: decimal.NewFromInt(40), Period: models.BudgetPeriodMonthly},
	}

	got := Evaluate(budgets, src, now)
	require.Len(t, got, 3)

	assert.Equal(t, "b1", got[0].BudgetID)
	assert.True(t, got[0].Used.Equal(decimal.NewFromInt(100)), "monthly window excludes September")
	assert.Equal(t, int64(20), got[0].Percentage)

	assert.True(t, got[1].Used.Equal(decimal.NewFromInt(1050)), "yearly window spans the whole year")
	assert.Equal(t, int64(53), got[1].Percentage)

	assert.True(t, got[2].Used.IsZero())
	assert.Equal(t, int64(0), got[2].Percentage)
}
