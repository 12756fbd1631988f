// Package aggregate derives financial summaries from the ledger store in the
// user's display currency.
package aggregate

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/currency"
	"budgetwise/internal/ledger"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

// Summary holds the headline totals in the display currency.
type Summary struct {
	Currency     currency.Selection `json:"currency"`
	Income       decimal.Decimal    `json:"income"`
	Expenses     decimal.Decimal    `json:"expenses"`
	Balance      decimal.Decimal    `json:"balance"`
	IncomeText   string             `json:"income_text"`
	ExpensesText string             `json:"expenses_text"`
	BalanceText  string             `json:"balance_text"`
	Count        int                `json:"count"`
}

// DisplayTransaction pairs a canonical transaction with its display amount.
type DisplayTransaction struct {
	models.Transaction
	DisplayAmount decimal.Decimal `json:"display_amount"`
	DisplayText   string          `json:"display_text"`
}

// MonthTotal holds one month of the trend in the display currency.
type MonthTotal struct {
	Month    time.Time       `json:"month"`
	Label    string          `json:"label"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// NetWorth is balance minus everything invested, in the display currency.
type NetWorth struct {
	Balance      decimal.Decimal `json:"balance"`
	Invested     decimal.Decimal `json:"invested"`
	Amount       decimal.Decimal `json:"amount"`
	Text         string          `json:"text"`
	InvestedText string          `json:"invested_text"`
}

type summaryKey struct {
	version uint64
	code    string
}

// Engine computes derived figures from a ledger store. Summary is memoized on
// the store version and the display currency code.
type Engine struct {
	store *ledger.Store
	pref  *currency.Preference

	mu       sync.Mutex
	key      summaryKey
	cached   Summary
	valid    bool
	computed int
}

// NewEngine returns an engine reading store and projecting through pref.
func NewEngine(store *ledger.Store, pref *currency.Preference) *Engine {
	return &Engine{store: store, pref: pref}
}

// Summary returns income, expense and balance totals. It is recomputed only
// when the store or the display currency has changed since the last call.
func (e *Engine) Summary() Summary {
	sel := e.pref.Current()
	key := summaryKey{version: e.store.Version(), code: sel.Code}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.valid && e.key == key {
		return e.cached
	}

	snapshot := e.store.Snapshot()
	income, expenses := decimal.Zero, decimal.Zero
	for _, tx := range snapshot {
		switch tx.Kind {
		case models.TransactionKindIncome:
			income = income.Add(tx.Amount)
		case models.TransactionKindExpense:
			expenses = expenses.Add(tx.Amount)
		}
	}

	s := Summary{
		Currency: sel,
		Income:   e.project(income, sel),
		Expenses: e.project(expenses, sel),
		Count:    len(snapshot),
	}
	s.Balance = s.Income.Sub(s.Expenses)
	s.IncomeText = currency.Format(sel.Symbol, s.Income)
	s.ExpensesText = currency.Format(sel.Symbol, s.Expenses)
	s.BalanceText = currency.Format(sel.Symbol, s.Balance)

	e.key, e.cached, e.valid = key, s, true
	e.computed++
	return s
}

// ExpensesByCategory sums expense amounts per category in the canonical
// currency. Income never contributes.
func (e *Engine) ExpensesByCategory() map[string]decimal.Decimal {
	totals := map[string]decimal.Decimal{}
	for _, tx := range e.store.Snapshot() {
		if tx.Kind != models.TransactionKindExpense {
			continue
		}
		totals[tx.Category] = totals[tx.Category].Add(tx.Amount)
	}
	return totals
}

// CategoryExpenses sums canonical expense amounts for category with a date in
// [from, to).
func (e *Engine) CategoryExpenses(category string, from, to time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range e.store.Snapshot() {
		if tx.Kind != models.TransactionKindExpense || tx.Category != category {
			continue
		}
		if tx.Date.Before(from) || !tx.Date.Before(to) {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

// DisplayTransactions returns the ledger in display order with amounts in the
// display currency. The canonical amounts are left as stored.
func (e *Engine) DisplayTransactions() []DisplayTransaction {
	sel := e.pref.Current()
	snapshot := e.store.Snapshot()
	out := make([]DisplayTransaction, len(snapshot))
	for i, tx := range snapshot {
		amount := e.project(tx.Amount, sel)
		out[i] = DisplayTransaction{
			Transaction:   tx,
			DisplayAmount: amount,
			DisplayText:   currency.Format(sel.Symbol, amount),
		}
	}
	return out
}

// MonthlyTrend returns exactly n entries, oldest first, ending with the month
// containing now. Months without transactions are present with zero totals.
func (e *Engine) MonthlyTrend(n int, now time.Time) []MonthTotal {
	if n <= 0 {
		return []MonthTotal{}
	}
	sel := e.pref.Current()
	y, m, _ := now.Date()
	current := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)

	trend := make([]MonthTotal, n)
	for i := range trend {
		start := current.AddDate(0, i-n+1, 0)
		trend[i] = MonthTotal{
			Month:    start,
			Label:    start.Format("Jan 2006"),
			Income:   decimal.Zero,
			Expenses: decimal.Zero,
		}
	}

	first := trend[0].Month
	for _, tx := range e.store.Snapshot() {
		ty, tm, _ := tx.Date.UTC().Date()
		i := (ty-first.Year())*12 + int(tm) - int(first.Month())
		if i < 0 || i >= n {
			continue
		}
		switch tx.Kind {
		case models.TransactionKindIncome:
			trend[i].Income = trend[i].Income.Add(tx.Amount)
		case models.TransactionKindExpense:
			trend[i].Expenses = trend[i].Expenses.Add(tx.Amount)
		}
	}

	for i := range trend {
		trend[i].Income = e.project(trend[i].Income, sel)
		trend[i].Expenses = e.project(trend[i].Expenses, sel)
		trend[i].Balance = trend[i].Income.Sub(trend[i].Expenses)
	}
	return trend
}

// NetWorth subtracts the total of investments from the ledger balance.
func (e *Engine) NetWorth(investments []models.Investment) NetWorth {
	invested := decimal.Zero
	for _, inv := range investments {
		invested = invested.Add(inv.Amount)
	}

	s := e.Summary()
	sel := s.Currency
	nw := NetWorth{
		Balance:  s.Balance,
		Invested: e.project(invested, sel),
	}
	nw.Amount = nw.Balance.Sub(nw.Invested)
	nw.Text = currency.Format(sel.Symbol, nw.Amount)
	nw.InvestedText = currency.Format(sel.Symbol, nw.Invested)
	return nw
}

func (e *Engine) project(amount decimal.Decimal, sel currency.Selection) decimal.Decimal {
	out, err := currency.Project(amount, currency.Canonical, sel.Code, e.pref.Table())
	if err != nil {
		logger.Named("aggregate").Errorw("projection failed, showing canonical amount", "error", err, "code", sel.Code)
		return amount
	}
	return out
}
