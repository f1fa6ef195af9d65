// Package aggregate computes the derived views of a ledger: totals, trailing
// monthly buckets, volatility and savings-rate insights. Everything here is a
// pure function of its inputs.
package aggregate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gigfin/internal/core"
)

// WindowMonths is the length of the trailing trend window.
const WindowMonths = 12

// Totals sums income and expense amounts. Net is exactly Income - Expense.
func Totals(entries []core.Entry) core.Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, e := range entries {
		switch e.Type {
		case core.Income:
			income = income.Add(e.Amount)
		case core.Expense:
			expense = expense.Add(e.Amount)
		}
	}
	return core.Totals{Income: income, Expense: expense, Net: income.Sub(expense)}
}

// MonthKey formats the bucket key for a year and month, e.g. 2024-01.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// MonthlyBuckets returns exactly WindowMonths buckets for the months ending
// with ref's month, oldest first. Every month is seeded with zero totals
// before aggregation; entries outside the window are ignored.
func MonthlyBuckets(entries []core.Entry, ref time.Time) []core.MonthBucket {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]core.MonthBucket, WindowMonths)
	index := make(map[string]int, WindowMonths)
	for i := range buckets {
		m := first.AddDate(0, i-(WindowMonths-1), 0)
		key := MonthKey(m.Year(), m.Month())
		buckets[i] = core.MonthBucket{
			Key:     key,
			Label:   m.Format("Jan 06"),
			Year:    m.Year(),
			Month:   int(m.Month()),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
		}
		index[key] = i
	}

	for _, e := range entries {
		i, ok := index[MonthKey(e.Date.Year(), time.Month(e.Date.Month()))]
		if !ok {
			continue
		}
		switch e.Type {
		case core.Income:
			buckets[i].Income = buckets[i].Income.Add(e.Amount)
		case core.Expense:
			buckets[i].Expense = buckets[i].Expense.Add(e.Amount)
		}
	}
	return buckets
}

// IncomeSeries extracts the income column of buckets.
func IncomeSeries(buckets []core.MonthBucket) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		out[i] = b.Income
	}
	return out
}

// ExpenseSeries extracts the expense column of buckets.
func ExpenseSeries(buckets []core.MonthBucket) []decimal.Decimal {
	out := make([]decimal.Decimal, len(buckets))
	for i, b := range buckets {
		out[i] = b.Expense
	}
	return out
}

// SavingsRate returns (income - expense) / income * 100. ok is false when
// income is not positive; callers render that as "N/A".
func SavingsRate(income, expense decimal.Decimal) (rate decimal.Decimal, ok bool) {
	if !income.IsPositive() {
		return decimal.Zero, false
	}
	return income.Sub(expense).Div(income).Mul(decimal.NewFromInt(100)), true
}
