package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

// Factory is the default Opener.
type Factory struct {
	logger *slog.Logger
}

var _ Opener = (*Factory)(nil)

// NewFactory returns a factory logging to logger, or to the default logger
// when nil.
func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

func (f *Factory) Open(ctx context.Context, opts Options) (*Backend, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Kind == SQLite {
		return f.openSQLite(ctx, opts)
	}
	return f.openMemory(ctx, opts)
}

func (f *Factory) openSQLite(ctx context.Context, opts Options) (*Backend, error) {
	store, err := storage.NewSQLiteStore(opts.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite backend: %w", err)
	}
	f.logger.InfoContext(ctx, "Storage backend ready", "backend", SQLite, "db_path", opts.SQLitePath)
	return &Backend{Kind: SQLite, Store: store, close: store.Close}, nil
}

func (f *Factory) openMemory(ctx context.Context, opts Options) (*Backend, error) {
	var store *memory.Store
	if opts.SeedFile == "" {
		store = memory.New()
	} else {
		var err error
		if store, err = memory.NewFromFile(opts.SeedFile); err != nil {
			return nil, fmt.Errorf("seed memory backend: %w", err)
		}
	}
	f.logger.InfoContext(ctx, "Storage backend ready",
		"backend", Memory, "seed_file", opts.SeedFile, "keys", store.Len())
	return &Backend{Kind: Memory, Store: store}, nil
}
