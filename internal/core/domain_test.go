package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != 1 || d.Day() != 15 {
		t.Fatalf("unexpected date: %v", d)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("unexpected string: %q", d.String())
	}
	for _, bad := range []string{"", "2024-13-01", "15/01/2024", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestParseLedgerAndType(t *testing.T) {
	if l, err := ParseLedger(" Business "); err != nil || l != Business {
		t.Fatalf("unexpected ledger: %v %v", l, err)
	}
	if _, err := ParseLedger("savings"); !errors.Is(err, ErrUnknownLedger) {
		t.Fatalf("expected ErrUnknownLedger, got %v", err)
	}
	if typ, err := ParseEntryType("EXPENSE"); err != nil || typ != Expense {
		t.Fatalf("unexpected type: %v %v", typ, err)
	}
	if _, err := ParseEntryType("refund"); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestEntryFieldsValidate(t *testing.T) {
	good := EntryFields{
		Date:        NewDate(2025, 1, 1),
		Amount:      decimal.NewFromInt(10),
		Type:        Income,
		Description: "ok",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []struct {
		f    EntryFields
		want error
	}{
		{EntryFields{Amount: decimal.NewFromInt(1), Type: Income}, ErrInvalidDate},
		{EntryFields{Date: NewDate(2025, 1, 1), Amount: decimal.NewFromInt(-1), Type: Income}, ErrInvalidAmount},
		{EntryFields{Date: NewDate(2025, 1, 1), Amount: decimal.NewFromInt(1), Type: "gift"}, ErrInvalidType},
	}
	for i, tc := range bads {
		if err := tc.f.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestEntryPatchApplyKeepsUnsetFields(t *testing.T) {
	e := Entry{ID: 7, Date: NewDate(2024, 1, 15), Amount: decimal.NewFromInt(1000), Type: Income, Description: "Gig A"}
	desc := "Gig A (final)"
	got := EntryPatch{Description: &desc}.Apply(e)

	if got.ID != 7 || !got.Amount.Equal(e.Amount) || got.Type != Income || !got.Date.Equal(e.Date.Time) {
		t.Fatalf("unset fields changed: %+v", got)
	}
	if got.Description != desc {
		t.Fatalf("description not applied: %q", got.Description)
	}
	if !(EntryPatch{}).IsEmpty() {
		t.Fatalf("zero patch should be empty")
	}
}

func TestEntryJSON(t *testing.T) {
	e := Entry{ID: 3, Date: NewDate(2024, 1, 20), Amount: decimal.RequireFromString("200.5"), Type: Expense, Description: "Supplies"}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":3,"date":"2024-01-20","amount":200.5,"type":"expense","description":"Supplies"}`
	if string(b) != want {
		t.Fatalf("unexpected json:\n got %s\nwant %s", b, want)
	}

	var back Entry
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(e) {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, e)
	}

	// Amounts written as strings and missing amounts are tolerated.
	var quoted Entry
	if err := json.Unmarshal([]byte(`{"id":1,"date":"2024-02-01","amount":"12.30","type":"income"}`), &quoted); err != nil {
		t.Fatalf("unmarshal quoted: %v", err)
	}
	if !quoted.Amount.Equal(decimal.RequireFromString("12.3")) {
		t.Fatalf("unexpected amount %s", quoted.Amount)
	}
	var missing Entry
	if err := json.Unmarshal([]byte(`{"id":2,"date":"2024-02-01","type":"income"}`), &missing); err != nil {
		t.Fatalf("unmarshal missing amount: %v", err)
	}
	if !missing.Amount.IsZero() {
		t.Fatalf("expected zero amount, got %s", missing.Amount)
	}
	if err := json.Unmarshal([]byte(`{"id":2,"date":"not-a-date"}`), &missing); err == nil {
		t.Fatalf("expected error for bad date")
	}
}
