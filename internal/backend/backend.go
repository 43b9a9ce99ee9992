// Package backend opens the key/value store selected by configuration. The
// ledger, the preferences and the rate provider all share that store.
package backend

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

// Kind names a storage backend.
type Kind string

const (
	Memory Kind = "memory"
	SQLite Kind = "sqlite"
)

// Kinds lists the supported backends, default first.
func Kinds() []Kind {
	return []Kind{Memory, SQLite}
}

func (k Kind) Valid() bool {
	return slices.Contains(Kinds(), k)
}

// Options selects and parameterizes a backend.
type Options struct {
	Kind Kind

	// SQLitePath is the database file of the sqlite backend.
	SQLitePath string
	// SeedFile optionally preloads the memory backend from a JSON object of
	// key/value pairs.
	SeedFile string
}

// OptionsFromConfig maps the application configuration onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, errors.New("nil configuration")
	}
	opts := Options{
		Kind:       Kind(cfg.DataBackend),
		SQLitePath: cfg.SQLiteDBPath,
		SeedFile:   cfg.DataSeedFile,
	}
	return opts, opts.Validate()
}

func (o Options) Validate() error {
	if !o.Kind.Valid() {
		return fmt.Errorf("unknown storage backend %q (want one of %v)", o.Kind, Kinds())
	}
	if o.Kind == SQLite && o.SQLitePath == "" {
		return errors.New("sqlite backend needs a database path")
	}
	return nil
}

// Backend is an opened store. Close releases whatever the store holds and is
// safe to call on backends that hold nothing.
type Backend struct {
	Kind  Kind
	Store storage.Store
	close func() error
}

func (b *Backend) Close() error {
	if b == nil || b.close == nil {
		return nil
	}
	return b.close()
}

// Opener opens backends; tests substitute their own.
type Opener interface {
	Open(ctx context.Context, opts Options) (*Backend, error)
}
