package http

import (
	"net/http"
	"strconv"

	"gigfin/internal/aggregate"
	"gigfin/internal/core"
	"gigfin/internal/log"
)

type entriesResponse struct {
	Ledger  core.LedgerName `json:"ledger"`
	Entries []core.Entry    `json:"entries"`
	Totals  core.Totals     `json:"totals"`
}

type totalsResponse struct {
	Ledger    core.LedgerName   `json:"ledger"`
	Totals    core.Totals       `json:"totals"`
	Formatted map[string]string `json:"formatted"`
	Currency  string            `json:"currency"`
}

type trendsResponse struct {
	Ledger    core.LedgerName    `json:"ledger"`
	Reference string             `json:"reference"`
	Buckets   []core.MonthBucket `json:"buckets"`
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	name, err := core.ParseLedger(r.PathValue("ledger"))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	entries, err := s.store.ListEntries(name)
	if err != nil {
		s.fail(w, r, "List entries failed", err, log.OpList)
		return
	}
	NewResponse().JSON(entriesResponse{
		Ledger:  name,
		Entries: entries,
		Totals:  aggregate.Totals(entries),
	}).Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	name, id, err := entryPath(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	e, err := s.store.Entry(name, id)
	if err != nil {
		s.fail(w, r, "Get entry failed", err, log.OpRead)
		return
	}
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	name, err := core.ParseLedger(r.PathValue("ledger"))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	fields, err := ParseEntryFields(NewRequestBodyParser(r))
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
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/ledgers/"+name.String()+"/entries/"+strconv.FormatInt(e.ID, 10)).
		JSON(e).
		Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
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
	e, err := s.store.UpdateEntry(r.Context(), name, id, patch)
	if err != nil {
		s.fail(w, r, "Update entry failed", err, log.OpUpdate)
		return
	}
	s.entryChanged(r, log.OpUpdate, name, id)
	NewResponse().JSON(e).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	name, id, err := entryPath(r)
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	removed, err := s.store.DeleteEntry(r.Context(), name, id)
	if err != nil {
		s.fail(w, r, "Delete entry failed", err, log.OpDelete)
		return
	}
	s.entryChanged(r, log.OpDelete, name, id)
	NewResponse().JSON(removed).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	name, err := core.ParseLedger(r.PathValue("ledger"))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	t, err := s.store.Totals(name)
	if err != nil {
		s.fail(w, r, "Totals failed", err, log.OpRead)
		return
	}
	NewResponse().JSON(totalsResponse{
		Ledger: name,
		Totals: t,
		Formatted: map[string]string{
			"income":  core.FormatAmount(t.Income, s.cfg.Currency),
			"expense": core.FormatAmount(t.Expense, s.cfg.Currency),
			"net":     core.FormatAmount(t.Net, s.cfg.Currency),
		},
		Currency: s.cfg.Currency,
	}).Write(w)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	name, err := core.ParseLedger(r.PathValue("ledger"))
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	ref, err := ParseRefMonth(r.URL.Query(), s.now())
	if err != nil {
		ErrorFor(err).Write(w)
		return
	}
	buckets, err := s.trends(r.Context(), name, ref)
	if err != nil {
		s.fail(w, r, "Trends failed", err, log.OpRead)
		return
	}
	NewResponse().JSON(trendsResponse{
		Ledger:    name,
		Reference: aggregate.MonthKey(ref.Year(), ref.Month()),
		Buckets:   buckets,
	}).Write(w)
}

func entryPath(r *http.Request) (core.LedgerName, int64, error) {
	name, err := core.ParseLedger(r.PathValue("ledger"))
	if err != nil {
		return "", 0, err
	}
	id, err := ParseEntryID(r.PathValue("id"))
	if err != nil {
		return "", 0, err
	}
	return name, id, nil
}

func (s *Server) entryChanged(r *http.Request, op string, name core.LedgerName, id int64) {
	s.metrics.entryChanged(name.String(), op)
	s.events.LogEntryChange(r.Context(), op, name.String(), id)
}

// fail logs server-side failures and writes the mapped error response.
// Client errors are only logged by the request trace.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	resp := ErrorFor(err)
	if resp.statusCode >= http.StatusInternalServerError {
		s.events.LogError(r.Context(), msg, err, op, log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()))
	}
	resp.Write(w)
}
