// Package storage provides the key/value persistence used by the ledger and
// the preference components, plus a SQLite implementation.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Keys of the persisted values.
const (
	KeyTransactions = "finance-tracker-transactions"
	KeyCurrency     = "finance-tracker-currency"
	KeyTheme        = "finance-tracker-theme"
	KeyRates        = "finance-tracker-rates"
)

var ErrStoreClosed = errors.New("store closed")

// Store is a string key/value store. Get reports ok=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// LoadJSON decodes the value under key into a T. Missing keys, read errors
// and malformed JSON all yield fallback; failures are logged, never returned.
func LoadJSON[T any](ctx context.Context, s Store, key string, fallback T) T {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read stored value", "key", key, "error", err)
		return fallback
	}
	if !ok || raw == "" {
		return fallback
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.WarnContext(ctx, "Stored value is malformed, using fallback", "key", key, "error", err)
		return fallback
	}
	return out
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.Set(ctx, key, string(b)); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}
