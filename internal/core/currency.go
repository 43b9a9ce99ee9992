package core

import (
	"errors"
	"fmt"
	"strings"
)

// Currency is an ISO 4217 code.
type Currency string

const (
	UAH Currency = "UAH"
	USD Currency = "USD"
	EUR Currency = "EUR"

	// Base is the currency every stored amount is denominated in.
	Base = UAH
)

// CurrencyInfo describes a supported currency for presentation.
type CurrencyInfo struct {
	Code   Currency `json:"code"`
	Symbol string   `json:"symbol"`
	Name   string   `json:"name"`
}

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// Currencies lists the supported display currencies, base first.
var Currencies = []CurrencyInfo{
	{Code: UAH, Symbol: "₴", Name: "Hryvnia"},
	{Code: USD, Symbol: "$", Name: "US Dollar"},
	{Code: EUR, Symbol: "€", Name: "Euro"},
}

// RateCurrencies returns the supported currencies that need a rate, i.e. all
// but the base.
func RateCurrencies() []Currency {
	out := make([]Currency, 0, len(Currencies)-1)
	for _, c := range Currencies {
		if c.Code != Base {
			out = append(out, c.Code)
		}
	}
	return out
}

func (c Currency) String() string { return string(c) }

func (c Currency) IsBase() bool { return c == Base }

// IsSupported reports whether c is one of Currencies.
func (c Currency) IsSupported() bool {
	for _, info := range Currencies {
		if info.Code == c {
			return true
		}
	}
	return false
}

// ParseCurrency normalizes s and checks that it is supported.
func ParseCurrency(s string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(s)))
	if !c.IsSupported() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, s)
	}
	return c, nil
}

// Symbol returns the display symbol of code, or the code itself when unknown.
func Symbol(code Currency) string {
	for _, info := range Currencies {
		if info.Code == code {
			return info.Symbol
		}
	}
	return string(code)
}
