package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"gigfin/internal/aggregate"
	"gigfin/internal/core"
)

// Title capitalises ledger and type names for display. Casers keep state,
// so each call gets its own.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// LedgerTable renders entries as a markdown table. Entries are printed in
// the order given.
func LedgerTable(ledger core.LedgerName, entries []core.Entry, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s entries\n\n", Title(string(ledger)))
	if len(entries) == 0 {
		b.WriteString("_No entries yet._\n")
		return b.String()
	}
	b.WriteString("| ID | Date | Type | Description | Amount |\n")
	b.WriteString("|---:|---|---|---|---:|\n")
	for _, e := range entries {
		desc := e.Description
		if desc == "" {
			desc = "-"
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s |\n",
			e.ID, e.Date, Title(string(e.Type)), escapeCell(desc), core.FormatAmount(e.Amount, currency))
	}
	return b.String()
}

// TotalsBlock renders income, expense and net for one ledger.
func TotalsBlock(ledger core.LedgerName, t core.Totals, currency string) string {
	net := "Net Balance"
	if ledger == core.Business {
		net = "Net Profit"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## %s totals\n\n", Title(string(ledger)))
	fmt.Fprintf(&b, "- **Income:** %s\n", core.FormatAmount(t.Income, currency))
	fmt.Fprintf(&b, "- **Expense:** %s\n", core.FormatAmount(t.Expense, currency))
	fmt.Fprintf(&b, "- **%s:** %s\n", net, core.FormatAmount(t.Net, currency))
	return b.String()
}

// TrendTable renders the monthly buckets, oldest first.
func TrendTable(ledger core.LedgerName, buckets []core.MonthBucket, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s trend\n\n", Title(string(ledger)))
	b.WriteString("| Month | Income | Expense |\n")
	b.WriteString("|---|---:|---:|\n")
	for _, m := range buckets {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", m.Label, core.FormatAmount(m.Income, currency), core.FormatAmount(m.Expense, currency))
	}
	return b.String()
}

// InsightsList renders the insight cards and the income status.
func InsightsList(in aggregate.Insights, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Insights (%s)\n\n", in.Reference)
	for _, item := range InsightItems(in, currency) {
		fmt.Fprintf(&b, "- **%s:** %s\n", item.Title, item.Value)
	}
	fmt.Fprintf(&b, "\n> %s\n", in.IncomeStatus.Message())
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// Terminal writes markdown to w, styled by glamour when style is not
// "plain". Rendering failures fall back to the raw markdown.
func Terminal(w io.Writer, markdown, style string) error {
	if style == "" || style == "plain" {
		_, err := io.WriteString(w, markdown)
		return err
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100)}
	if style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		_, werr := io.WriteString(w, markdown)
		return werr
	}
	out, err := r.Render(markdown)
	if err != nil {
		out = markdown
	}
	_, err = io.WriteString(w, out)
	return err
}
