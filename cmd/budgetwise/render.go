package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"budgetwise/internal/aggregate"
	"budgetwise/internal/currency"
	"budgetwise/internal/finance"
	"budgetwise/internal/models"
	"budgetwise/internal/usage"
)

const barWidth = 20

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f849c"))
	incomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	spendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// view is the data a dashboard render needs, gathered from the tracker.
type view struct {
	Summary    aggregate.Summary
	NetWorth   aggregate.NetWorth
	Categories map[string]decimal.Decimal
	Usage      []usage.Usage
	Trend      []aggregate.MonthTotal
	Recent     []aggregate.DisplayTransaction
	Currency   currency.Selection
	Table      currency.RateTable
}

func collect(t *finance.Tracker, table currency.RateTable, recent int) view {
	txs := t.Transactions()
	if len(txs) > recent {
		txs = txs[:recent]
	}
	return view{
		Summary:    t.Summary(),
		NetWorth:   t.NetWorth(),
		Categories: t.ExpensesByCategory(),
		Usage:      t.BudgetUsage(),
		Trend:      t.MonthlyTrend(6),
		Recent:     txs,
		Currency:   t.Currency(),
		Table:      table,
	}
}

// display projects a canonical amount into the view's currency.
func (v view) display(amount decimal.Decimal) string {
	projected, err := currency.Project(amount, currency.Canonical, v.Currency.Code, v.Table)
	if err != nil {
		projected = amount
	}
	return currency.Format(v.Currency.Symbol, projected)
}

func render(w io.Writer, v view) {
	var sections []string

	sections = append(sections, boxStyle.Render(strings.Join([]string{
		titleStyle.Render("BudgetWise") + labelStyle.Render(fmt.Sprintf("  %s · %d transactions", v.Currency.Code, v.Summary.Count)),
		labelStyle.Render("Income    ") + incomeStyle.Render(v.Summary.IncomeText),
		labelStyle.Render("Expenses  ") + spendStyle.Render(v.Summary.ExpensesText),
		labelStyle.Render("Balance   ") + v.Summary.BalanceText,
		labelStyle.Render("Invested  ") + v.NetWorth.InvestedText,
		labelStyle.Render("Net worth ") + v.NetWorth.Text,
	}, "\n")))

	if len(v.Usage) > 0 {
		lines := []string{titleStyle.Render("Budgets")}
		for _, u := range v.Usage {
			lines = append(lines, budgetLine(v, u))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(v.Categories) > 0 {
		lines := []string{titleStyle.Render("Spending by category")}
		names := make([]string, 0, len(v.Categories))
		for name := range v.Categories {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool {
			a, b := v.Categories[names[i]], v.Categories[names[j]]
			if !a.Equal(b) {
				return a.GreaterThan(b)
			}
			return names[i] < names[j]
		})
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %-16s %14s", truncate(name, 16), v.display(v.Categories[name])))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	if len(v.Trend) > 0 {
		lines := []string{titleStyle.Render("Last months")}
		for _, m := range v.Trend {
			lines = append(lines, fmt.Sprintf("  %-9s %s %s %s",
				m.Label,
				incomeStyle.Render(fmt.Sprintf("%14s", currency.Format(v.Currency.Symbol, m.Income))),
				spendStyle.Render(fmt.Sprintf("%14s", currency.Format(v.Currency.Symbol, m.Expenses))),
				fmt.Sprintf("%14s", currency.Format(v.Currency.Symbol, m.Balance)),
			))
		}
		sections = append(sections, strings.Join(lines, "\n"))
	}

	lines := []string{titleStyle.Render("Recent")}
	if len(v.Recent) == 0 {
		lines = append(lines, labelStyle.Render("  No transactions yet."))
	}
	for _, tx := range v.Recent {
		amount := tx.DisplayText
		if tx.Kind == models.TransactionKindExpense {
			amount = spendStyle.Render(fmt.Sprintf("%14s", "-"+amount))
		} else {
			amount = incomeStyle.Render(fmt.Sprintf("%14s", "+"+amount))
		}
		lines = append(lines, fmt.Sprintf("  %s  %-16s %s  %s",
			tx.Date.Format("2006-01-02"), truncate(tx.Category, 16), amount, labelStyle.Render(truncate(tx.Description, 30))))
	}
	sections = append(sections, strings.Join(lines, "\n"))

	_, _ = fmt.Fprintln(w, strings.Join(sections, "\n\n"))
}

func budgetLine(v view, u usage.Usage) string {
	filled := int(u.BarWidth() * barWidth / 100)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	style := incomeStyle
	switch u.Status {
	case usage.StatusAtLimit:
		style = warnStyle
	case usage.StatusOver:
		style = spendStyle
	}

	return fmt.Sprintf("  %-16s %s %4d%%  %s / %s (%s)",
		truncate(u.Category, 16),
		style.Render(bar),
		u.Percentage,
		v.display(u.Used),
		v.display(u.Limit),
		u.Period,
	)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
