// Package render turns ledger data and insights into markdown, terminal
// output and dashboard charts.
package render

import (
	"github.com/shopspring/decimal"

	"gigfin/internal/aggregate"
	"gigfin/internal/core"
)

// Tone tells the view how to colour a value.
type Tone string

const (
	Positive Tone = "positive"
	Warning  Tone = "warning"
	Negative Tone = "negative"
)

// NotAvailable is shown for a savings rate without income.
const NotAvailable = "N/A"

// InsightItem is one titled value on the trends view.
type InsightItem struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Tone  Tone   `json:"tone"`
}

// InsightItems lists the trends view cards in display order.
func InsightItems(in aggregate.Insights, currency string) []InsightItem {
	return []InsightItem{
		{Title: "Business Net Profit", Value: core.FormatAmount(in.Business.Totals.Net, currency), Tone: signTone(in.Business.Totals.Net)},
		rateItem("Business Savings Rate", in.Business.SavingsRate),
		{Title: "Personal Net Balance", Value: core.FormatAmount(in.Personal.Totals.Net, currency), Tone: signTone(in.Personal.Totals.Net)},
		rateItem("Personal Savings Rate", in.Personal.SavingsRate),
		volatilityItem("Business Income Volatility", in.BusinessIncomeVolatility),
		volatilityItem("Personal Expense Volatility", in.PersonalExpenseVolatility),
	}
}

// FormatRate renders a savings rate with one decimal, or N/A.
func FormatRate(rate *decimal.Decimal) string {
	if rate == nil {
		return NotAvailable
	}
	return rate.StringFixed(1) + "%"
}

func rateItem(title string, rate *decimal.Decimal) InsightItem {
	tone := Positive
	if rate != nil && rate.IsNegative() {
		tone = Negative
	}
	return InsightItem{Title: title, Value: FormatRate(rate), Tone: tone}
}

func volatilityItem(title string, v aggregate.Volatility) InsightItem {
	tone := Positive
	switch v {
	case aggregate.Medium:
		tone = Warning
	case aggregate.High:
		tone = Negative
	}
	return InsightItem{Title: title, Value: v.Label(), Tone: tone}
}

func signTone(d decimal.Decimal) Tone {
	if d.IsNegative() {
		return Negative
	}
	return Positive
}

// StatusTone colours the income threshold banner.
func StatusTone(s aggregate.IncomeStatus) Tone {
	if s == aggregate.BelowThreshold {
		return Warning
	}
	return Positive
}
