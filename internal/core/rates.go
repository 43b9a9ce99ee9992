package core

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Snapshot is an immutable set of conversion rates. Rates[X] is the amount
// of base currency equal to one unit of X. The base currency is never a key.
//
// Build snapshots with NewSnapshot and never mutate the map afterwards.
type Snapshot struct {
	Rates       map[Currency]float64 `json:"rates"`
	LastUpdated time.Time            `json:"lastUpdated"`
}

var ErrInvalidSnapshot = errors.New("invalid rate snapshot")

// NewSnapshot copies rates and checks that every supported non-base currency
// has a finite positive rate.
func NewSnapshot(rates map[Currency]float64, at time.Time) (*Snapshot, error) {
	s := &Snapshot{
		Rates:       make(map[Currency]float64, len(rates)),
		LastUpdated: at.UTC(),
	}
	for c, r := range rates {
		if c == Base {
			continue
		}
		s.Rates[c] = r
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Snapshot) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil", ErrInvalidSnapshot)
	}
	if _, ok := s.Rates[Base]; ok {
		return fmt.Errorf("%w: base currency %s has a rate", ErrInvalidSnapshot, Base)
	}
	for _, c := range RateCurrencies() {
		r, ok := s.Rates[c]
		if !ok {
			return fmt.Errorf("%w: missing %s", ErrInvalidSnapshot, c)
		}
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return fmt.Errorf("%w: %s rate %v", ErrInvalidSnapshot, c, r)
		}
	}
	if s.LastUpdated.IsZero() {
		return fmt.Errorf("%w: zero timestamp", ErrInvalidSnapshot)
	}
	return nil
}

// Rate returns the rate of c. The base currency always has rate 1.
func (s *Snapshot) Rate(c Currency) (float64, bool) {
	if c == Base {
		return 1, true
	}
	if s == nil {
		return 0, false
	}
	r, ok := s.Rates[c]
	return r, ok
}

// NewerThan reports whether s was retrieved after other. Any snapshot is
// newer than nil.
func (s *Snapshot) NewerThan(other *Snapshot) bool {
	if other == nil {
		return s != nil
	}
	if s == nil {
		return false
	}
	return s.LastUpdated.After(other.LastUpdated)
}

// Age returns how long ago the snapshot was retrieved.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LastUpdated)
}
