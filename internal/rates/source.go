// Package rates fetches exchange rates and keeps the current snapshot,
// refreshing it periodically with retry and backoff.
package rates

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrMissingRate means the upstream data lacks a required currency.
	ErrMissingRate = errors.New("missing rate")
	// ErrUpstreamStatus is returned for non-2xx responses.
	ErrUpstreamStatus = errors.New("unexpected upstream status")
)

// Source retrieves a complete rate snapshot. Implementations must return an
// error rather than a snapshot missing a supported currency.
type Source interface {
	Fetch(ctx context.Context) (*core.Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*core.Snapshot, error)

func (f SourceFunc) Fetch(ctx context.Context) (*core.Snapshot, error) { return f(ctx) }
