// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing user-entered amounts and for
// formatting amounts and counts the way the dashboard displays them.
package core

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidAmount = errors.New("invalid amount")

var printer = message.NewPrinter(language.AmericanEnglish)

// ParseAmount converts a user-entered decimal string to a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to cents. Negative, zero and malformed values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// FormatUSD renders an amount as US currency with two decimals and
// thousands separators, e.g. "$1,234.50" or "-$600.00".
func FormatUSD(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", whole.IntPart()), cents)
}

// FormatOutflow renders an outgoing amount the way the transaction tables
// show it, e.g. "-$2,450.00".
func FormatOutflow(d decimal.Decimal) string {
	return "-" + FormatUSD(d.Abs())
}

// FormatCount renders an integer with thousands separators, e.g. "1,492".
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}
