// Package core provides money parsing and handling utilities.
//
// Amounts are kept as decimal.Decimal at full precision and are only rounded
// to cents when formatted for display.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied numeric string to a non-negative
// decimal amount.
//
// A single leading currency sign is tolerated and surrounding whitespace is
// ignored. Anything else that is not a plain decimal number is rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("$7")     -> 7, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
//	ParseAmount("abc")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// AmountOrZero parses s and falls back to zero on invalid input.
func AmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders an amount with two decimal places for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatDollars renders an amount as a dollar string (e.g. "$12.30").
func FormatDollars(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
