package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

func TestOptionsFromConfig(t *testing.T) {
	if _, err := OptionsFromConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := OptionsFromConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	opts, err := OptionsFromConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", DataSeedFile: "seed.json"})
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}
	if opts.Kind != SQLite || opts.SQLitePath != "x.db" || opts.SeedFile != "seed.json" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"memory", Options{Kind: Memory}, false},
		{"sqlite", Options{Kind: SQLite, SQLitePath: "x.db"}, false},
		{"sqlite without path", Options{Kind: SQLite}, true},
		{"unknown", Options{Kind: "redis"}, true},
		{"empty", Options{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.Validate(); (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenMemory(t *testing.T) {
	ctx := context.Background()
	seed := filepath.Join(t.TempDir(), "seed.json")
	if err := os.WriteFile(seed, []byte(`{"finance-tracker-theme":"dark"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := NewFactory(nil).Open(ctx, Options{Kind: Memory, SeedFile: seed})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close on memory backend: %v", err)
	}
	if v, ok, _ := b.Store.Get(ctx, storage.KeyTheme); !ok || v != "dark" {
		t.Fatalf("expected seeded theme, got %q %v", v, ok)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`[1,2`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFactory(nil).Open(ctx, Options{Kind: Memory, SeedFile: bad}); err == nil {
		t.Fatal("expected error for malformed seed file")
	}
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fintrack.db")

	b, err := NewFactory(nil).Open(ctx, Options{Kind: SQLite, SQLitePath: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer b.Close()

	if err := b.Store.Set(ctx, storage.KeyCurrency, `"USD"`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if v, ok, err := b.Store.Get(ctx, storage.KeyCurrency); err != nil || !ok || v != `"USD"` {
		t.Fatalf("Get = %q %v %v", v, ok, err)
	}
}

func TestNilBackendClose(t *testing.T) {
	var b *Backend
	if err := b.Close(); err != nil {
		t.Fatalf("Close on nil backend: %v", err)
	}
}
