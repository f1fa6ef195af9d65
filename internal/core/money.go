// Package core provides money parsing and formatting utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and rendering decimal amounts in a display currency.
package core

import (
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "INR"

// ParseAmount converts a user-supplied decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Signs are rejected: ledger amounts are never negative, the entry type
// carries the direction. Zero is accepted.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, part := range parts {
		for _, r := range part {
			if !unicode.IsDigit(r) {
				return decimal.Zero, ErrInvalidAmount
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// currency returns a never nil currency for code, falling back to the default.
func currency(code string) money.Currency {
	if code == "" || money.GetCurrency(code) == nil {
		code = DefaultCurrency
	}
	return *money.New(0, code).Currency()
}

// FormatAmount renders amount in the given currency, e.g. ₹1,000.00.
// Amounts are rounded half away from zero to the currency's minor unit.
// The minor units stay a decimal, so amounts past the int64 range format
// exactly.
func FormatAmount(amount decimal.Decimal, code string) string {
	cur := currency(code)
	f := cur.Formatter()
	minor := amount.Shift(int32(f.Fraction)).Round(0)

	sa := minor.Abs().String()
	if len(sa) <= f.Fraction {
		sa = strings.Repeat("0", f.Fraction-len(sa)+1) + sa
	}
	if f.Thousand != "" {
		for i := len(sa) - f.Fraction - 3; i > 0; i -= 3 {
			sa = sa[:i] + f.Thousand + sa[i:]
		}
	}
	if f.Fraction > 0 {
		sa = sa[:len(sa)-f.Fraction] + f.Decimal + sa[len(sa)-f.Fraction:]
	}
	sa = strings.Replace(f.Template, "1", sa, 1)
	sa = strings.Replace(sa, "$", f.Grapheme, 1)
	if minor.IsNegative() {
		sa = "-" + sa
	}
	return sa
}
