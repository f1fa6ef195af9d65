package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{"0", "0", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount string
		code   string
		want   string
	}{
		{"1000", "INR", "₹1,000.00"},
		{"12.345", "USD", "$12.35"},
		{"-800", "USD", "-$800.00"},
		{"5", "", "₹5.00"},
		{"5", "NOPE", "₹5.00"},
		{"0.004", "USD", "$0.00"},
		{"-0.004", "USD", "$0.00"},
		{"1000000000000000", "INR", "₹1,000,000,000,000,000.00"},
		{"100000000000000000000", "INR", "₹100,000,000,000,000,000,000.00"},
		{"-92233720368547758.08", "USD", "-$92,233,720,368,547,758.08"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.amount), tc.code)
		if got != tc.want {
			t.Fatalf("FormatAmount(%s, %q) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

func TestFormatAmountLargeSums(t *testing.T) {
	big, err := ParseAmount("90000000000000000")
	if err != nil {
		t.Fatal(err)
	}
	got := FormatAmount(big.Add(big), "USD")
	if want := "$180,000,000,000,000,000.00"; got != want {
		t.Fatalf("FormatAmount(sum) = %q, want %q", got, want)
	}
}
