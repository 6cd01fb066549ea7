// Package core provides money parsing and handling utilities.
//
// This file contains the parser used for amounts typed by users or read
// from imported spreadsheets.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string to a strictly positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators when only one
// separator is present, and strips thousands separators in the form 1,234.50.
// A lone comma followed by exactly three digits (1,234) could be either a
// decimal or a thousands separator and is rejected rather than guessed.
// Returns ErrInvalidAmount for empty, signed, non-numeric, zero or negative input.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1,234.50") -> 1234.5, nil
//	ParseAmount("1,234")    -> 0, ErrInvalidAmount
//	ParseAmount("0")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	switch {
	case strings.Contains(s, ".") && strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ",", "")
	case strings.Count(s, ",") == 1:
		if ambiguousComma(s) {
			return decimal.Zero, ErrInvalidAmount
		}
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func ambiguousComma(s string) bool {
	frac := s[strings.IndexByte(s, ',')+1:]
	if len(frac) != 3 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MustAmount parses s and panics on error. Intended for fixtures.
func MustAmount(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return d
}
