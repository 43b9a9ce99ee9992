// Package settings holds the persisted user preferences: display currency
// and theme.
package settings

import (
	"context"
	"log/slog"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences stores the display currency and theme. The zero state, before
// Load, is base currency and light theme.
type Preferences struct {
	store storage.Store

	mu       sync.RWMutex
	currency core.Currency
	dark     bool
}

func New(store storage.Store) *Preferences {
	return &Preferences{store: store, currency: core.Base}
}

// Load reads both preferences. Missing, malformed or unsupported values fall
// back to the defaults.
func (p *Preferences) Load(ctx context.Context) {
	raw := storage.LoadJSON(ctx, p.store, storage.KeyCurrency, string(core.Base))
	cur, err := core.ParseCurrency(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored display currency not supported, using base",
			"currency", raw, "base", core.Base)
		cur = core.Base
	}

	theme, ok, err := p.store.Get(ctx, storage.KeyTheme)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to read theme preference", "error", err)
	}

	p.mu.Lock()
	p.currency = cur
	p.dark = ok && theme == ThemeDark
	p.mu.Unlock()
}

func (p *Preferences) Currency() core.Currency {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currency
}

// SetCurrency changes the display currency. Unsupported codes are rejected;
// a storage failure is logged and the in-memory value still changes.
func (p *Preferences) SetCurrency(ctx context.Context, c core.Currency) error {
	cur, err := core.ParseCurrency(string(c))
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.currency = cur
	p.mu.Unlock()

	if err := storage.SaveJSON(ctx, p.store, storage.KeyCurrency, string(cur)); err != nil {
		slog.ErrorContext(ctx, "Failed to persist display currency", "currency", cur, "error", err)
	}
	return nil
}

func (p *Preferences) IsDark() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dark
}

// Theme returns "dark" or "light".
func (p *Preferences) Theme() string {
	if p.IsDark() {
		return ThemeDark
	}
	return ThemeLight
}

func (p *Preferences) SetDark(ctx context.Context, dark bool) {
	p.mu.Lock()
	p.dark = dark
	p.mu.Unlock()
	p.persistTheme(ctx, dark)
}

// ToggleTheme flips the theme and returns the new dark flag.
func (p *Preferences) ToggleTheme(ctx context.Context) bool {
	p.mu.Lock()
	p.dark = !p.dark
	dark := p.dark
	p.mu.Unlock()
	p.persistTheme(ctx, dark)
	return dark
}

func (p *Preferences) persistTheme(ctx context.Context, dark bool) {
	theme := ThemeLight
	if dark {
		theme = ThemeDark
	}
	if err := p.store.Set(ctx, storage.KeyTheme, theme); err != nil {
		slog.ErrorContext(ctx, "Failed to persist theme", "theme", theme, "error", err)
	}
}
