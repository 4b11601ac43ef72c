// Package core provides the payoff domain types and money helpers.
//
// This file contains functions for parsing user-entered amounts and
// formatting decimal money values for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAllocation converts a user-entered extra monthly payment into a decimal
// rounded to the cent.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// half-up rounding on the third decimal place. Zero is a valid allocation.
// Returns ErrInvalidAllocationInput for empty, non-numeric or negative input.
//
// Examples:
//
//	ParseAllocation("150")    -> 150.00, nil
//	ParseAllocation("12,345") -> 12.35, nil
//	ParseAllocation("-5")     -> 0, ErrInvalidAllocationInput
func ParseAllocation(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAllocationInput
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAllocationInput
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return decimal.Zero, ErrInvalidAllocationInput
	}
	if parts[0] == "" && (len(parts) == 1 || parts[1] == "") {
		return decimal.Zero, ErrInvalidAllocationInput
	}
	for _, p := range parts {
		for _, r := range p {
			if !unicode.IsDigit(r) || r > unicode.MaxASCII {
				return decimal.Zero, ErrInvalidAllocationInput
			}
		}
	}
	if parts[0] == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAllocationInput
	}
	return RoundCents(d), nil
}

// RoundCents rounds half away from zero to two decimal places.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FormatMoney renders an amount as "$1,234.56" for display.
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + "." + frac
}
