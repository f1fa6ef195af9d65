package http

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"gigfin/internal/aggregate"
	"gigfin/internal/core"
	"gigfin/internal/log"
	"gigfin/internal/render"
)

type insightsResponse struct {
	aggregate.Insights
	Items         []render.InsightItem `json:"items"`
	StatusMessage string               `json:"incomeStatusMessage"`
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	ref, err := ParseRefMonth(r.URL.Query(), s.now())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	in, err := s.insights(r.Context(), ref)
	if err != nil {
		s.fail(w, r, "Insights failed", err, log.OpRead)
		return
	}
	NewResponse().JSON(insightsResponse{
		Insights:      in,
		Items:         render.InsightItems(in, s.cfg.Currency),
		StatusMessage: in.IncomeStatus.Message(),
	}).Write(w)
}

type ledgerView struct {
	Name    core.LedgerName
	Title   string
	NetName string
	Income  string
	Expense string
	Net     string
	NetTone render.Tone
	Rows    []entryRow
}

type entryRow struct {
	Ledger      core.LedgerName
	ID          int64
	Date        string
	Type        string
	Income      bool
	Description string
	Amount      string

	// AmountValue prefills the edit form.
	AmountValue string
}

type dashboardData struct {
	Reference    string
	PrevRef      string
	NextRef      string
	Today        string
	Currency     string
	Ledgers      []ledgerView
	Items        []render.InsightItem
	Status       string
	StatusTone   render.Tone
	Threshold    string
	Charts       render.Charts
	ChartsError  bool
	PDFEnabled   bool
	InvoiceError string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()
	ref, err := ParseRefMonth(r.URL.Query(), now)
	if err != nil {
		ref, _ = ParseRefMonth(nil, now)
	}

	in, err := s.insights(ctx, ref)
	if err != nil {
		s.fail(w, r, "Dashboard insights failed", err, log.OpRender)
		return
	}

	data := dashboardData{
		Reference:  aggregate.MonthKey(ref.Year(), ref.Month()),
		PrevRef:    monthKey(ref.AddDate(0, -1, 0)),
		NextRef:    monthKey(ref.AddDate(0, 1, 0)),
		Today:      core.DateOf(now).String(),
		Currency:   s.cfg.Currency,
		Items:      render.InsightItems(in, s.cfg.Currency),
		Status:     in.IncomeStatus.Message(),
		StatusTone: render.StatusTone(in.IncomeStatus),
		Threshold:  core.FormatAmount(in.IncomeThreshold, s.cfg.Currency),
		PDFEnabled: s.pdf != nil,

		InvoiceError: r.URL.Query().Get("invoice_error"),
	}

	for _, name := range core.Ledgers() {
		entries, err := s.store.ListEntries(name)
		if err != nil {
			s.fail(w, r, "Dashboard entries failed", err, log.OpRender)
			return
		}
		data.Ledgers = append(data.Ledgers, s.ledgerView(name, entries))
	}

	charts, err := render.DashboardCharts(in)
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Dashboard charts failed", log.FieldError, err)
		data.ChartsError = true
	} else {
		data.Charts = charts
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard.html", data); err != nil {
		s.fail(w, r, "Dashboard template execution failed", err, log.OpRender)
		return
	}
	NewResponse().Body(buf.Bytes(), "text/html; charset=utf-8").Write(w)
}

func (s *Server) ledgerView(name core.LedgerName, entries []core.Entry) ledgerView {
	t := aggregate.Totals(entries)
	v := ledgerView{
		Name:    name,
		Title:   render.Title(name.String()),
		NetName: "Net Balance",
		Income:  core.FormatAmount(t.Income, s.cfg.Currency),
		Expense: core.FormatAmount(t.Expense, s.cfg.Currency),
		Net:     core.FormatAmount(t.Net, s.cfg.Currency),
		NetTone: render.Positive,
		Rows:    make([]entryRow, 0, len(entries)),
	}
	if name == core.Business {
		v.NetName = "Net Profit"
	}
	if t.Net.IsNegative() {
		v.NetTone = render.Negative
	}
	for _, e := range entries {
		v.Rows = append(v.Rows, entryRow{
			Ledger:      name,
			ID:          e.ID,
			Date:        e.Date.String(),
			Type:        render.Title(string(e.Type)),
			Income:      e.Type == core.Income,
			Description: e.Description,
			Amount:      core.FormatAmount(e.Amount, s.cfg.Currency),
			AmountValue: e.Amount.String(),
		})
	}
	return v
}

func monthKey(t time.Time) string {
	return aggregate.MonthKey(t.Year(), t.Month())
}

// handleFormCreateEntry adds an entry from the dashboard form and returns
// to the dashboard.
func (s *Server) handleFormCreateEntry(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		ErrorFor(err).Write(w)
		return
	}
	name, err := core.ParseLedger(p.Get("ledger"))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	fields, err := ParseEntryFields(p)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	e, err := s.store.AddEntry(r.Context(), name, fields)
	if err != nil {
		s.fail(w, r, "Create entry failed", err, log.OpCreate)
		return
	}
	s.entryChanged(r, log.OpCreate, name, e.ID)
	http.Redirect(w, r, "/#"+template.URLQueryEscaper(name.String()), http.StatusSeeOther)
}

func (s *Server) handleFormUpdateEntry(w http.ResponseWriter, r *http.Request) {
	name, id, err := entryPath(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	patch, err := ParseEntryPatch(NewRequestBodyParser(r))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if _, err := s.store.UpdateEntry(r.Context(), name, id, patch); err != nil {
		s.fail(w, r, "Update entry failed", err, log.OpUpdate)
		return
	}
	s.entryChanged(r, log.OpUpdate, name, id)
	http.Redirect(w, r, "/#"+template.URLQueryEscaper(name.String()), http.StatusSeeOther)
}

func (s *Server) handleFormDeleteEntry(w http.ResponseWriter, r *http.Request) {
	name, id, err := entryPath(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	if _, err := s.store.DeleteEntry(r.Context(), name, id); err != nil {
		s.fail(w, r, "Delete entry failed", err, log.OpDelete)
		return
	}
	s.entryChanged(r, log.OpDelete, name, id)
	http.Redirect(w, r, "/#"+template.URLQueryEscaper(name.String()), http.StatusSeeOther)
}
