package aggregate

import (
	"time"

	"github.com/shopspring/decimal"

	"gigfin/internal/core"
)

// DefaultIncomeThreshold is the business income the status check compares against.
var DefaultIncomeThreshold = decimal.NewFromInt(5000)

// IncomeStatus tells whether business income reached the configured threshold.
type IncomeStatus string

const (
	BelowThreshold IncomeStatus = "below_threshold"
	AboveThreshold IncomeStatus = "above_threshold"
)

// CheckIncome compares income with threshold; reaching it counts as above.
func CheckIncome(income, threshold decimal.Decimal) IncomeStatus {
	if income.LessThan(threshold) {
		return BelowThreshold
	}
	return AboveThreshold
}

func (s IncomeStatus) Message() string {
	if s == BelowThreshold {
		return "Warning: Income is below threshold. Consider increasing your gig earnings."
	}
	return "Great! Your income is above the threshold. Keep up the good work!"
}

// LedgerInsight summarises one ledger for the trends view.
type LedgerInsight struct {
	Ledger      core.LedgerName    `json:"ledger"`
	Totals      core.Totals        `json:"totals"`
	SavingsRate *decimal.Decimal   `json:"savingsRate"` // nil when income is zero
	Buckets     []core.MonthBucket `json:"buckets"`
}

// Insights is everything the trends view shows, computed in one pass.
type Insights struct {
	Reference                 string          `json:"reference"` // YYYY-MM
	Business                  LedgerInsight   `json:"business"`
	Personal                  LedgerInsight   `json:"personal"`
	BusinessIncomeVolatility  Volatility      `json:"businessIncomeVolatility"`
	PersonalExpenseVolatility Volatility      `json:"personalExpenseVolatility"`
	IncomeStatus              IncomeStatus    `json:"incomeStatus"`
	IncomeThreshold           decimal.Decimal `json:"incomeThreshold"`
}

func ledgerInsight(name core.LedgerName, entries []core.Entry, ref time.Time) LedgerInsight {
	totals := Totals(entries)
	li := LedgerInsight{
		Ledger:  name,
		Totals:  totals,
		Buckets: MonthlyBuckets(entries, ref),
	}
	if rate, ok := SavingsRate(totals.Income, totals.Expense); ok {
		li.SavingsRate = &rate
	}
	return li
}

// BuildInsights computes the trends view for both ledgers at ref.
// Totals and the income status use all entries; volatility uses the
// trailing window only.
func BuildInsights(business, personal []core.Entry, ref time.Time, threshold decimal.Decimal) Insights {
	b := ledgerInsight(core.Business, business, ref)
	p := ledgerInsight(core.Personal, personal, ref)
	return Insights{
		Reference:                 MonthKey(ref.Year(), ref.Month()),
		Business:                  b,
		Personal:                  p,
		BusinessIncomeVolatility:  VolatilityOf(IncomeSeries(b.Buckets)),
		PersonalExpenseVolatility: VolatilityOf(ExpenseSeries(p.Buckets)),
		IncomeStatus:              CheckIncome(b.Totals.Income, threshold),
		IncomeThreshold:           threshold,
	}
}
