// Package core provides the finance tracker domain: transactions, currencies,
// rate snapshots and conversion.
//
// This file contains amount parsing and the presentation helpers used to
// render amounts and dates.
package core

import (
	"strings"
	"time"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DateLayout is the presentation layout used by FormatDate.
const DateLayout = "Jan 02, 2006, 03:04 PM"

// ParseAmount converts a decimal string to a non-negative amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// thousands separators and any other characters are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// FormatAmount renders amount with grouped thousands and a fixed number of
// decimals, e.g. FormatAmount(1234.56, 2) == "1,234.56".
func FormatAmount(amount float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	f := money.NewFormatter(decimals, ".", ",", "", "1")
	return f.Format(minorUnits(amount, decimals))
}

// FormatMoney renders amount in currency c using its symbol and conventions.
func FormatMoney(amount float64, c Currency) string {
	cur := money.GetCurrency(string(c))
	if cur == nil {
		return FormatAmount(amount, 2) + " " + string(c)
	}
	return money.New(minorUnits(amount, cur.Fraction), cur.Code).Display()
}

// FormatDate renders an ISO-8601 timestamp with DateLayout. Input that does
// not parse is returned unchanged.
func FormatDate(iso string) string {
	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		return iso
	}
	return t.Format(DateLayout)
}

// minorUnits rounds amount half away from zero to the given number of decimals.
func minorUnits(amount float64, decimals int) int64 {
	return decimal.NewFromFloat(amount).Shift(int32(decimals)).Round(0).IntPart()
}
