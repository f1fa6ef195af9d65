package core

import "github.com/shopspring/decimal"

// Totals is the income/expense/net summary of a set of entries.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// MonthBucket aggregates one calendar month of a trailing window.
type MonthBucket struct {
	Key     string          `json:"key"` // YYYY-MM
	Label   string          `json:"label"`
	Year    int             `json:"year"`
	Month   int             `json:"month"` // 1-12
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}
