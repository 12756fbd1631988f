// Package currency projects canonical amounts into a display currency using a
// static USD-pivoted rate table, and formats them for display.
package currency

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Canonical is the currency amounts are stored in.
const Canonical = "USD"

// ErrUnknownCurrency is returned for codes missing from the rate table.
var ErrUnknownCurrency = errors.New("unknown currency")

// Rate is one row of a RateTable: how many units of Code buy one USD.
type Rate struct {
	Code   string
	Symbol string
	PerUSD decimal.Decimal
}

// RateTable maps an upper-case currency code to its rate.
type RateTable map[string]Rate

// DefaultRates is the static table used when no other is configured.
var DefaultRates = RateTable{
	"USD": {Code: "USD", Symbol: "$", PerUSD: decimal.NewFromInt(1)},
	"EUR": {Code: "EUR", Symbol: "€", PerUSD: decimal.RequireFromString("0.92")},
	"GBP": {Code: "GBP", Symbol: "£", PerUSD: decimal.RequireFromString("0.79")},
	"INR": {Code: "INR", Symbol: "₹", PerUSD: decimal.RequireFromString("83.12")},
	"JPY": {Code: "JPY", Symbol: "¥", PerUSD: decimal.RequireFromString("149.50")},
	"CAD": {Code: "CAD", Symbol: "C$", PerUSD: decimal.RequireFromString("1.36")},
	"AUD": {Code: "AUD", Symbol: "A$", PerUSD: decimal.RequireFromString("1.52")},
	"CNY": {Code: "CNY", Symbol: "CN¥", PerUSD: decimal.RequireFromString("7.24")},
}

// Lookup returns the rate for code, ignoring case.
func (t RateTable) Lookup(code string) (Rate, bool) {
	r, ok := t[strings.ToUpper(code)]
	if !ok || !r.PerUSD.IsPositive() {
		return Rate{}, false
	}
	return r, true
}

// Codes returns the table's codes in alphabetical order.
func (t RateTable) Codes() []string {
	codes := make([]string, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Project converts amount from one currency to another through USD:
// amount / rate[from] * rate[to]. It never rounds.
func Project(amount decimal.Decimal, from, to string, table RateTable) (decimal.Decimal, error) {
	src, ok := table.Lookup(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, from)
	}
	dst, ok := table.Lookup(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnknownCurrency, to)
	}
	if src.Code == dst.Code {
		return amount, nil
	}
	return amount.Div(src.PerUSD).Mul(dst.PerUSD), nil
}

var printer = message.NewPrinter(language.English)

// Format renders symbol followed by amount with two fractional digits and
// grouped thousands, e.g. "$1,234,567.89". Negative amounts lead with "-".
// The digits come from the decimal itself, so no precision is lost.
func Format(symbol string, amount decimal.Decimal) string {
	amount = amount.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	whole, frac, _ := strings.Cut(amount.StringFixed(2), ".")
	return sign + symbol + group(whole) + "." + frac
}

// group inserts English thousands separators into a string of digits.
func group(digits string) string {
	if n, err := strconv.ParseInt(digits, 10, 64); err == nil {
		return printer.Sprintf("%d", n)
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
