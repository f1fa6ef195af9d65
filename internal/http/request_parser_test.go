package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"gigfin/internal/core"
)

func parserFor(body string) *RequestBodyParser {
	return NewRequestBodyParser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
}

func TestRequestBodyParser_JSONAndForm(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantJSON bool
	}{
		{"json", `{"description":"  Client A\u0007 ","amount":1000.50}`, true},
		{"form", "description=+Client+A%07+&amount=1000.50", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parserFor(tt.body)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Fatalf("IsJSON() = %v", p.IsJSON())
			}
			if got := p.Get("description"); got != "Client A" {
				t.Errorf("description = %q", got)
			}
			if got := p.Get("amount"); got != "1000.50" {
				t.Errorf("amount = %q", got)
			}
			if !p.Has("amount") || p.Has("type") {
				t.Errorf("Has() mismatch")
			}
		})
	}
}

func TestRequestBodyParser_Malformed(t *testing.T) {
	for _, body := range []string{`{"amount":`, `[1,2]`, "a=%zz"} {
		err := parserFor(body).Parse()
		if !errors.Is(err, errMalformedBody) {
			t.Errorf("Parse(%q) error = %v, want errMalformedBody", body, err)
		}
	}
}

func TestRequestBodyParser_JSONNullIsAbsent(t *testing.T) {
	p := parserFor(`{"date":null}`)
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if p.Has("date") {
		t.Fatal("null should count as absent")
	}
}

func TestParseEntryFields(t *testing.T) {
	f, err := ParseEntryFields(parserFor(`{"date":"2024-01-15","amount":"1000","type":"Income","description":"Client A"}`))
	if err != nil {
		t.Fatalf("ParseEntryFields() error = %v", err)
	}
	if f.Date.String() != "2024-01-15" || f.Amount.String() != "1000" || f.Type != core.Income || f.Description != "Client A" {
		t.Fatalf("unexpected fields %+v", f)
	}

	tests := []struct {
		body string
		want error
	}{
		{`{"amount":"1","type":"income"}`, core.ErrInvalidDate},
		{`{"date":"2024-13-01","amount":"1","type":"income"}`, core.ErrInvalidDate},
		{`{"date":"2024-01-01","amount":"-5","type":"income"}`, core.ErrInvalidAmount},
		{`{"date":"2024-01-01","amount":"abc","type":"income"}`, core.ErrInvalidAmount},
		{`{"date":"2024-01-01","amount":"5","type":"transfer"}`, core.ErrInvalidType},
	}
	for _, tt := range tests {
		if _, err := ParseEntryFields(parserFor(tt.body)); !errors.Is(err, tt.want) {
			t.Errorf("ParseEntryFields(%s) error = %v, want %v", tt.body, err, tt.want)
		}
	}
}

func TestParseEntryPatch(t *testing.T) {
	p, err := ParseEntryPatch(parserFor(`{"amount":"200","description":""}`))
	if err != nil {
		t.Fatalf("ParseEntryPatch() error = %v", err)
	}
	if p.Amount == nil || p.Amount.String() != "200" {
		t.Fatalf("Amount = %v", p.Amount)
	}
	if p.Description == nil || *p.Description != "" {
		t.Fatalf("Description = %v", p.Description)
	}
	if p.Date != nil || p.Type != nil {
		t.Fatalf("unexpected fields set: %+v", p)
	}

	if _, err := ParseEntryPatch(parserFor(`{}`)); !errors.Is(err, errInvalidInput) {
		t.Fatalf("empty patch error = %v", err)
	}
	if _, err := ParseEntryPatch(parserFor(`{"type":"gift"}`)); !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("bad type error = %v", err)
	}
}

func TestParseInvoiceFields(t *testing.T) {
	f, err := ParseInvoiceFields(parserFor("clientName=Acme&amount=1500&issuerName=Me&serviceDescription=Design&invoiceNumber=INV-7"))
	if err != nil {
		t.Fatal(err)
	}
	if f.ClientName != "Acme" || f.Amount != "1500" || f.InvoiceNumber != "INV-7" || f.Date != "" {
		t.Fatalf("unexpected fields %+v", f)
	}
}

func TestParseRefMonth(t *testing.T) {
	now := time.Date(2024, 6, 18, 15, 4, 0, 0, time.UTC)

	got, err := ParseRefMonth(url.Values{}, now)
	if err != nil || !got.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("default ref = %v, %v", got, err)
	}
	got, err = ParseRefMonth(url.Values{"ref": {"2023-12"}}, now)
	if err != nil || got.Year() != 2023 || got.Month() != time.December {
		t.Fatalf("ref = %v, %v", got, err)
	}
	for _, bad := range []string{"2023-13", "12-2023", "2023-1-01"} {
		if _, err := ParseRefMonth(url.Values{"ref": {bad}}, now); !errors.Is(err, errInvalidInput) {
			t.Errorf("ParseRefMonth(%q) error = %v", bad, err)
		}
	}
}

func TestParseEntryID(t *testing.T) {
	if id, err := ParseEntryID("42"); err != nil || id != 42 {
		t.Fatalf("ParseEntryID(42) = %d, %v", id, err)
	}
	for _, bad := range []string{"", "0", "-1", "x"} {
		if _, err := ParseEntryID(bad); !errors.Is(err, errInvalidInput) {
			t.Errorf("ParseEntryID(%q) error = %v", bad, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := sanitizeInput(" a\x00b\tc\n "); got != "ab\tc" {
		t.Fatalf("sanitizeInput() = %q", got)
	}
}
