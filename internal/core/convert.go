package core

import (
	"errors"
	"fmt"
)

var ErrUnknownCurrency = errors.New("unknown currency")

// UnknownCurrencyError is returned when a conversion needs a rate the
// snapshot does not carry.
type UnknownCurrencyError struct {
	Currency Currency
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("no rate for currency %q", string(e.Currency))
}

func (e *UnknownCurrencyError) Is(target error) bool {
	return target == ErrUnknownCurrency
}

// ConvertFromBase converts a base-currency amount into target.
func ConvertFromBase(amount float64, target Currency, snap *Snapshot) (float64, error) {
	if target == Base {
		return amount, nil
	}
	rate, ok := snap.Rate(target)
	if !ok {
		return 0, &UnknownCurrencyError{Currency: target}
	}
	return amount / rate, nil
}

// ConvertToBase converts an amount expressed in source into the base currency.
func ConvertToBase(amount float64, source Currency, snap *Snapshot) (float64, error) {
	if source == Base {
		return amount, nil
	}
	rate, ok := snap.Rate(source)
	if !ok {
		return 0, &UnknownCurrencyError{Currency: source}
	}
	return amount * rate, nil
}

// Conversion is the context used to present base amounts. The zero value is
// the identity conversion.
type Conversion struct {
	target Currency
	snap   *Snapshot
}

// NoConversion leaves amounts unchanged.
func NoConversion() Conversion { return Conversion{} }

// DisplayConversion converts base amounts into target using snap. When either
// is missing the result is the identity: amounts are shown as stored.
func DisplayConversion(target Currency, snap *Snapshot) Conversion {
	if target == "" || snap == nil {
		return Conversion{target: target}
	}
	return Conversion{target: target, snap: snap}
}

// IsIdentity reports whether Apply returns its input unchanged.
func (c Conversion) IsIdentity() bool {
	return c.snap == nil || c.target == Base
}

// Currency is the currency amounts are labelled with after Apply.
func (c Conversion) Currency() Currency {
	if c.target == "" {
		return Base
	}
	return c.target
}

func (c Conversion) Apply(amount float64) (float64, error) {
	if c.snap == nil {
		return amount, nil
	}
	return ConvertFromBase(amount, c.target, c.snap)
}
