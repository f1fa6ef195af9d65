package render

import (
	"fmt"
	"html/template"

	"gigfin/internal/aggregate"
	"gigfin/internal/core"
	"gigfin/internal/render/svg"
)

// Charts are the three dashboard charts.
type Charts struct {
	Trend    template.HTML // business income vs expense, line
	Business template.HTML // business income vs expense, bars
	Personal template.HTML // personal income vs expense, bars
}

// DashboardCharts draws the trend charts from the insights' buckets.
func DashboardCharts(in aggregate.Insights) (Charts, error) {
	labels, bIncome, bExpense := seriesOf(in.Business.Buckets)
	_, pIncome, pExpense := seriesOf(in.Personal.Buckets)

	trend, err := svg.Lines(0, 0, incomeExpense(bIncome, bExpense), labels, svg.LineOpts{
		Title:       "Business Income vs Expense",
		Description: "Business income and expense over the last 12 months",
		ShowDots:    true,
		Fill:        true,
	})
	if err != nil {
		return Charts{}, fmt.Errorf("trend chart: %w", err)
	}
	business, err := svg.Bars(0, 0, incomeExpense(bIncome, bExpense), labels, svg.BarOpts{
		Title:       "Business Monthly",
		Description: "Business income and expense per month",
	})
	if err != nil {
		return Charts{}, fmt.Errorf("business chart: %w", err)
	}
	personal, err := svg.Bars(0, 0, incomeExpense(pIncome, pExpense), labels, svg.BarOpts{
		Title:       "Personal Monthly",
		Description: "Personal income and expense per month",
	})
	if err != nil {
		return Charts{}, fmt.Errorf("personal chart: %w", err)
	}
	return Charts{Trend: trend, Business: business, Personal: personal}, nil
}

func incomeExpense(income, expense []float64) []svg.Series {
	return []svg.Series{
		{Label: "Income", Values: income, Color: svg.IncomeColor},
		{Label: "Expense", Values: expense, Color: svg.ExpenseColor},
	}
}

func seriesOf(buckets []core.MonthBucket) (labels []string, income, expense []float64) {
	labels = make([]string, len(buckets))
	income = make([]float64, len(buckets))
	expense = make([]float64, len(buckets))
	for i, b := range buckets {
		labels[i] = b.Label
		income[i] = b.Income.InexactFloat64()
		expense[i] = b.Expense.InexactFloat64()
	}
	return labels, income, expense
}
