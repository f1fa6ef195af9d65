package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gigfin/internal/core"
	"gigfin/internal/storage/memory"
)

func fields(date, amount string, typ core.EntryType, desc string) core.EntryFields {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.EntryFields{Date: d, Amount: decimal.RequireFromString(amount), Type: typ, Description: desc}
}

func newStore(t *testing.T) (*Store, *memory.Store) {
	t.Helper()
	blob := memory.New()
	s, err := Open(context.Background(), blob)
	require.NoError(t, err)
	return s, blob
}

func TestAddEntryAssignsIncreasingIDsAcrossLedgers(t *testing.T) {
	ctx := context.Background()
	s, blob := newStore(t)

	a, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "1000", core.Income, "Client A"))
	require.NoError(t, err)
	b, err := s.AddEntry(ctx, core.Personal, fields("2024-01-16", "50", core.Expense, "Groceries"))
	require.NoError(t, err)
	c, err := s.AddEntry(ctx, core.Business, fields("2024-01-17", "20", core.Expense, ""))
	require.NoError(t, err)

	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)
	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, int64(4), s.Snapshot().NextID)
	assert.Equal(t, 3, blob.Puts())
}

func TestScenarioTotals(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "1000", core.Income, "Client A"))
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, core.Business, fields("2024-01-20", "200", core.Expense, "Fuel"))
	require.NoError(t, err)

	totals, err := s.Totals(core.Business)
	require.NoError(t, err)
	assert.True(t, totals.Income.Equal(decimal.NewFromInt(1000)))
	assert.True(t, totals.Expense.Equal(decimal.NewFromInt(200)))
	assert.True(t, totals.Net.Equal(decimal.NewFromInt(800)))

	personal, err := s.Totals(core.Personal)
	require.NoError(t, err)
	assert.True(t, personal.Net.IsZero())
}

func TestUpdateEntryMergesFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	e, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "1000", core.Income, "Client A"))
	require.NoError(t, err)

	amount := decimal.NewFromInt(1200)
	updated, err := s.UpdateEntry(ctx, core.Business, e.ID, core.EntryPatch{Amount: &amount})
	require.NoError(t, err)

	assert.Equal(t, e.ID, updated.ID)
	assert.True(t, updated.Amount.Equal(amount))
	assert.Equal(t, "Client A", updated.Description)
	assert.Equal(t, e.Date, updated.Date)

	got, err := s.Entry(core.Business, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(updated))
}

func TestUpdateEntryRejectsInvalidPatch(t *testing.T) {
	ctx := context.Background()
	s, blob := newStore(t)
	e, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "10", core.Income, ""))
	require.NoError(t, err)

	negative := decimal.NewFromInt(-1)
	_, err = s.UpdateEntry(ctx, core.Business, e.ID, core.EntryPatch{Amount: &negative})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Equal(t, 1, blob.Puts())
}

func TestMissingEntryDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	s, blob := newStore(t)
	e, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "10", core.Income, ""))
	require.NoError(t, err)

	desc := "x"
	_, err = s.UpdateEntry(ctx, core.Personal, e.ID, core.EntryPatch{Description: &desc})
	assert.ErrorIs(t, err, ErrEntryNotFound, "ids are scoped to their ledger")

	_, err = s.DeleteEntry(ctx, core.Business, 99)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	_, err = s.Entry(core.Business, 99)
	assert.ErrorIs(t, err, ErrEntryNotFound)

	assert.Equal(t, 1, blob.Puts())
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	a, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "10", core.Income, "a"))
	require.NoError(t, err)
	b, err := s.AddEntry(ctx, core.Business, fields("2024-01-16", "20", core.Income, "b"))
	require.NoError(t, err)

	removed, err := s.DeleteEntry(ctx, core.Business, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)

	entries, err := s.Entries(core.Business)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].ID)

	// ids are never reused after a delete
	c, err := s.AddEntry(ctx, core.Business, fields("2024-01-17", "30", core.Income, "c"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
}

func TestUnknownLedger(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	_, err := s.AddEntry(ctx, core.LedgerName("savings"), fields("2024-01-15", "10", core.Income, ""))
	assert.ErrorIs(t, err, core.ErrUnknownLedger)
	_, err = s.ListEntries(core.LedgerName("savings"))
	assert.ErrorIs(t, err, core.ErrUnknownLedger)
	_, err = s.Totals(core.LedgerName(""))
	assert.ErrorIs(t, err, core.ErrUnknownLedger)
}

func TestFailedWriteKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	s, blob := newStore(t)
	e, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "10", core.Income, "kept"))
	require.NoError(t, err)
	before := s.Snapshot()
	rev := s.Revision()

	blob.SetFailPuts(true)

	_, err = s.AddEntry(ctx, core.Business, fields("2024-01-16", "20", core.Income, ""))
	assert.ErrorIs(t, err, memory.ErrInjected)
	_, err = s.DeleteEntry(ctx, core.Business, e.ID)
	assert.ErrorIs(t, err, memory.ErrInjected)
	desc := "changed"
	_, err = s.UpdateEntry(ctx, core.Business, e.ID, core.EntryPatch{Description: &desc})
	assert.ErrorIs(t, err, memory.ErrInjected)

	assert.True(t, before.Equal(s.Snapshot()))
	assert.Equal(t, rev, s.Revision())

	blob.SetFailPuts(false)
	next, err := s.AddEntry(ctx, core.Business, fields("2024-01-16", "20", core.Income, ""))
	require.NoError(t, err)
	assert.Equal(t, int64(2), next.ID, "failed adds must not consume ids")
}

func TestListEntriesNewestFirstStable(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	for _, f := range []core.EntryFields{
		fields("2024-01-10", "1", core.Income, "first"),
		fields("2024-03-01", "2", core.Income, "newest"),
		fields("2024-01-10", "3", core.Expense, "second"),
	} {
		_, err := s.AddEntry(ctx, core.Business, f)
		require.NoError(t, err)
	}

	list, err := s.ListEntries(core.Business)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "newest", list[0].Description)
	assert.Equal(t, "first", list[1].Description)
	assert.Equal(t, "second", list[2].Description)

	// insertion order is untouched
	raw, err := s.Entries(core.Business)
	require.NoError(t, err)
	assert.Equal(t, "first", raw[0].Description)
}

func TestLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, blob := newStore(t)
	_, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "1000.50", core.Income, "Client A"))
	require.NoError(t, err)
	_, err = s.AddEntry(ctx, core.Personal, fields("2024-02-01", "99.99", core.Expense, "Phone"))
	require.NoError(t, err)

	reopened, err := Open(ctx, blob)
	require.NoError(t, err)
	assert.True(t, s.Snapshot().Equal(reopened.Snapshot()))
}

func TestLoadPersistedShape(t *testing.T) {
	ctx := context.Background()
	s, blob := newStore(t)
	_, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "1000", core.Income, "Client A"))
	require.NoError(t, err)

	raw, err := blob.Get(ctx, DefaultKey)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "business")
	assert.Contains(t, decoded, "personal")
	assert.JSONEq(t, "[]", string(decoded["personal"]))
	assert.JSONEq(t, "2", string(decoded["nextId"]))
}

func TestLoadMissingOrCorruptStartsEmpty(t *testing.T) {
	ctx := context.Background()
	cases := map[string]map[string][]byte{
		"missing":     nil,
		"not json":    {DefaultKey: []byte("{nope")},
		"wrong shape": {DefaultKey: []byte(`[1,2,3]`)},
		"bad type":    {DefaultKey: []byte(`{"business":[{"id":1,"date":"2024-01-01","amount":5,"type":"gift"}],"personal":[],"nextId":2}`)},
		"duplicate id": {DefaultKey: []byte(`{"business":[{"id":1,"date":"2024-01-01","amount":5,"type":"income"}],` +
			`"personal":[{"id":1,"date":"2024-01-01","amount":5,"type":"expense"}],"nextId":2}`)},
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Open(ctx, memory.NewWithData(data))
			require.NoError(t, err)
			snap := s.Snapshot()
			assert.Empty(t, snap.Business)
			assert.Empty(t, snap.Personal)
			assert.Equal(t, int64(1), snap.NextID)
		})
	}
}

func TestLoadToleratesMissingFields(t *testing.T) {
	ctx := context.Background()
	blob := memory.NewWithData(map[string][]byte{
		"custom": []byte(`{"business":[{"id":7,"date":"2024-01-01","amount":"12.5","type":"income"}]}`),
	})
	s, err := Open(ctx, blob, WithKey("custom"))
	require.NoError(t, err)

	snap := s.Snapshot()
	require.Len(t, snap.Business, 1)
	assert.Empty(t, snap.Personal)
	assert.Equal(t, int64(8), snap.NextID, "counter moves past the highest stored id")
	assert.True(t, snap.Business[0].Amount.Equal(decimal.RequireFromString("12.5")))
}

type brokenBlob struct{ memory.Store }

var errBackend = errors.New("backend down")

func (b *brokenBlob) Get(context.Context, string) ([]byte, error) { return nil, errBackend }

func TestLoadReturnsBackendErrors(t *testing.T) {
	_, err := Open(context.Background(), &brokenBlob{})
	assert.ErrorIs(t, err, errBackend)
}

func TestRevisionAdvancesOnMutation(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	r0 := s.Revision()
	_, err := s.AddEntry(ctx, core.Business, fields("2024-01-15", "1", core.Income, ""))
	require.NoError(t, err)
	assert.Greater(t, s.Revision(), r0)
}

func TestSnapshotAtMatchesRevision(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	_, err := s.AddEntry(ctx, core.Personal, fields("2024-02-01", "10", core.Expense, "Tea"))
	require.NoError(t, err)

	state, rev := s.SnapshotAt()
	assert.Equal(t, s.Revision(), rev)
	assert.Len(t, state.Personal, 1)

	state.Personal[0].Description = "changed"
	got, err := s.Entry(core.Personal, state.Personal[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Tea", got.Description)
}

func TestStoreLogsEntryFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s, err := Open(context.Background(), memory.New(), WithLogger(logger))
	require.NoError(t, err)

	_, err = s.AddEntry(context.Background(), core.Business, fields("2024-06-01", "100", core.Income, ""))
	require.NoError(t, err)
	_, err = s.DeleteEntry(context.Background(), core.Business, 1)
	require.NoError(t, err)

	var records []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var rec map[string]any
		require.NoError(t, dec.Decode(&rec))
		records = append(records, rec)
	}
	msgs := map[string]map[string]any{}
	for _, rec := range records {
		msgs[rec["msg"].(string)] = rec
	}
	for _, msg := range []string{"Entry added", "Entry deleted"} {
		rec, ok := msgs[msg]
		require.True(t, ok, "missing %q record", msg)
		assert.Equal(t, "business", rec["ledger"])
		assert.Equal(t, float64(1), rec["entry_id"])
		assert.NotContains(t, rec, "id")
	}
	assert.Equal(t, "income", msgs["Entry added"]["entry_type"])
	assert.Equal(t, "100", msgs["Entry added"]["amount"])
}
