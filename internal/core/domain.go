package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Business LedgerName = "business"
	Personal LedgerName = "personal"

	Income  EntryType = "income"
	Expense EntryType = "expense"
)

// ISODate is the layout used for entry dates everywhere: storage, API and CLI.
const ISODate = "2006-01-02"

type (
	// LedgerName identifies one of the two independent ledgers.
	LedgerName string

	// EntryType tells whether an entry adds to or subtracts from a ledger.
	EntryType string

	Date struct {
		time.Time
	}

	// Entry is one income or expense record. IDs are unique across both ledgers.
	Entry struct {
		ID          int64
		Date        Date
		Amount      decimal.Decimal
		Type        EntryType
		Description string
	}

	// EntryFields carries the user-supplied part of a new entry.
	EntryFields struct {
		Date        Date
		Amount      decimal.Decimal
		Type        EntryType
		Description string
	}

	// EntryPatch is a partial update: nil fields keep their prior value.
	EntryPatch struct {
		Date        *Date
		Amount      *decimal.Decimal
		Type        *EntryType
		Description *string
	}
)

var (
	ErrUnknownLedger = errors.New("unknown ledger")
	ErrInvalidType   = errors.New("invalid entry type")
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
)

// Ledgers returns the known ledgers in display order.
func Ledgers() []LedgerName {
	return []LedgerName{Business, Personal}
}

func (l LedgerName) String() string {
	return string(l)
}

// IsValid returns true if l names a known ledger.
func (l LedgerName) IsValid() bool {
	switch l {
	case Business, Personal:
		return true
	default:
		return false
	}
}

// ParseLedger maps user input to a LedgerName.
func ParseLedger(s string) (LedgerName, error) {
	l := LedgerName(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownLedger, s)
	}
	return l, nil
}

func (t EntryType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseEntryType maps user input to an EntryType.
func ParseEntryType(s string) (EntryType, error) {
	t := EntryType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISODate, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISODate)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDate, string(b))
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Tolerate full timestamps, keeping only the calendar date.
	if len(s) > len(ISODate) {
		s = s[:len(ISODate)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (f EntryFields) Validate() error {
	if err := f.Date.Validate(); err != nil {
		return err
	}
	if f.Amount.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, f.Type)
	}
	return nil
}

// Validate checks only the fields the patch sets.
func (p EntryPatch) Validate() error {
	if p.Date != nil {
		if err := p.Date.Validate(); err != nil {
			return err
		}
	}
	if p.Amount != nil && p.Amount.IsNegative() {
		return fmt.Errorf("%w: must not be negative", ErrInvalidAmount)
	}
	if p.Type != nil && !p.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, *p.Type)
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p EntryPatch) IsEmpty() bool {
	return p.Date == nil && p.Amount == nil && p.Type == nil && p.Description == nil
}

// Apply merges the patch into e. The ID is never touched.
func (p EntryPatch) Apply(e Entry) Entry {
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	return e
}

// Equal compares entries field by field, amounts by value.
func (e Entry) Equal(o Entry) bool {
	return e.ID == o.ID &&
		e.Date.Equal(o.Date.Time) &&
		e.Amount.Equal(o.Amount) &&
		e.Type == o.Type &&
		e.Description == o.Description
}

type entryJSON struct {
	ID          int64       `json:"id"`
	Date        Date        `json:"date"`
	Amount      json.Number `json:"amount"`
	Type        EntryType   `json:"type"`
	Description string      `json:"description"`
}

// MarshalJSON writes the amount as a JSON number.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		ID:          e.ID,
		Date:        e.Date,
		Amount:      json.Number(e.Amount.String()),
		Type:        e.Type,
		Description: e.Description,
	})
}

// UnmarshalJSON accepts the amount as a number or a numeric string.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	amount := decimal.Zero
	if raw.Amount != "" {
		d, err := decimal.NewFromString(raw.Amount.String())
		if err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidAmount, raw.Amount)
		}
		amount = d
	}
	*e = Entry{
		ID:          raw.ID,
		Date:        raw.Date,
		Amount:      amount,
		Type:        raw.Type,
		Description: raw.Description,
	}
	return nil
}
