// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Entry and invoice bodies arrive either as JSON (API clients) or
// form-encoded (dashboard forms) and go through the same parser.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gigfin/internal/core"
	"gigfin/internal/invoice"
)

const maxBodyBytes = 1 << 20

var (
	errMalformedBody = errors.New("malformed request body")
	errInvalidInput  = errors.New("invalid input")
)

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.jsonData = nil
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return p.err
	}
	if body[0] == '[' {
		p.err = fmt.Errorf("%w: expected an object", errMalformedBody)
		return p.err
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Has reports whether key was sent at all, even empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// ParseEntryFields builds the fields of a new entry. Date, amount and type
// are required; the description may be empty.
func ParseEntryFields(p *RequestBodyParser) (core.EntryFields, error) {
	if err := p.Parse(); err != nil {
		return core.EntryFields{}, err
	}
	date, err := core.ParseDate(p.Get("date"))
	if err != nil {
		return core.EntryFields{}, err
	}
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.EntryFields{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, p.Get("amount"))
	}
	typ, err := core.ParseEntryType(p.Get("type"))
	if err != nil {
		return core.EntryFields{}, err
	}
	return core.EntryFields{
		Date:        date,
		Amount:      amount,
		Type:        typ,
		Description: p.Get("description"),
	}, nil
}

// ParseEntryPatch builds a partial update from the keys present in the body.
func ParseEntryPatch(p *RequestBodyParser) (core.EntryPatch, error) {
	var patch core.EntryPatch
	if err := p.Parse(); err != nil {
		return patch, err
	}
	if p.Has("date") {
		d, err := core.ParseDate(p.Get("date"))
		if err != nil {
			return patch, err
		}
		patch.Date = &d
	}
	if p.Has("amount") {
		a, err := core.ParseAmount(p.Get("amount"))
		if err != nil {
			return patch, fmt.Errorf("%w: %q", core.ErrInvalidAmount, p.Get("amount"))
		}
		patch.Amount = &a
	}
	if p.Has("type") {
		t, err := core.ParseEntryType(p.Get("type"))
		if err != nil {
			return patch, err
		}
		patch.Type = &t
	}
	if p.Has("description") {
		desc := p.Get("description")
		patch.Description = &desc
	}
	if patch.IsEmpty() {
		return patch, fmt.Errorf("%w: no fields to update", errInvalidInput)
	}
	return patch, nil
}

// ParseInvoiceFields reads the invoice form. Validation happens in the composer.
func ParseInvoiceFields(p *RequestBodyParser) (invoice.Fields, error) {
	if err := p.Parse(); err != nil {
		return invoice.Fields{}, err
	}
	return invoice.Fields{
		InvoiceNumber:      p.Get("invoiceNumber"),
		ClientName:         p.Get("clientName"),
		ServiceDescription: p.Get("serviceDescription"),
		Amount:             p.Get("amount"),
		IssuerName:         p.Get("issuerName"),
		Date:               p.Get("date"),
	}, nil
}

// ParseRefMonth reads ?ref=YYYY-MM, defaulting to now's month.
func ParseRefMonth(query url.Values, now time.Time) (time.Time, error) {
	v := strings.TrimSpace(query.Get("ref"))
	if v == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: ref must be YYYY-MM, got %q", errInvalidInput, v)
	}
	return t, nil
}

// ParseEntryID parses a path id.
func ParseEntryID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: entry id %q", errInvalidInput, s)
	}
	return id, nil
}
