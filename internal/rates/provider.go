package rates

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	baseRetryDelay = time.Second
	maxRetryDelay  = 30 * time.Second
)

// Config holds the refresh policy of a Provider.
type Config struct {
	// RefreshInterval is both the refresh period and the age under which a
	// snapshot is fresh enough to skip a refresh (default: 1h)
	RefreshInterval time.Duration

	// MaxRetries is the number of retries after the first failed attempt (default: 3)
	MaxRetries int

	// Timeout bounds each fetch attempt (default: 10s)
	Timeout time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RefreshInterval: time.Hour,
		MaxRetries:      3,
		Timeout:         10 * time.Second,
	}
}

// Status describes the provider state as seen by observers.
type Status struct {
	Loading     bool
	Err         error
	LastAttempt time.Time
	LastSuccess time.Time
	Stale       bool
}

// Provider holds the current snapshot. Readers never block on a refresh and
// always see a complete snapshot.
type Provider struct {
	source Source
	store  storage.Store
	config Config

	current atomic.Pointer[core.Snapshot]
	group   singleflight.Group

	statusMu sync.RWMutex
	status   Status

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewProvider creates a provider reading from source. store may be nil, in
// which case snapshots are not persisted.
func NewProvider(source Source, store storage.Store, config Config) *Provider {
	def := DefaultConfig()
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = def.RefreshInterval
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	return &Provider{
		source: source,
		store:  store,
		config: config,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Backoff returns the delay before retry number attempt (0-based):
// min(1s * 2^attempt, 30s).
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= 5 {
		return maxRetryDelay
	}
	return min(baseRetryDelay<<attempt, maxRetryDelay)
}

// Current returns the latest snapshot, or nil before the first success.
func (p *Provider) Current() *core.Snapshot {
	return p.current.Load()
}

// Conversion returns the display conversion into target using the current
// snapshot; it is the identity while no snapshot is available.
func (p *Provider) Conversion(target core.Currency) core.Conversion {
	return core.DisplayConversion(target, p.Current())
}

func (p *Provider) Status() Status {
	p.statusMu.RLock()
	st := p.status
	p.statusMu.RUnlock()
	st.Stale = p.isStale(p.Current())
	return st
}

// Restore loads a previously persisted snapshot, if any, and reports whether
// one was installed.
func (p *Provider) Restore(ctx context.Context) bool {
	if p.store == nil {
		return false
	}
	snap := storage.LoadJSON[*core.Snapshot](ctx, p.store, storage.KeyRates, nil)
	if snap == nil {
		return false
	}
	if err := snap.Validate(); err != nil {
		slog.WarnContext(ctx, "Ignoring persisted rate snapshot", "error", err)
		return false
	}
	if !p.swap(snap) {
		return false
	}
	p.statusMu.Lock()
	p.status.LastSuccess = snap.LastUpdated
	p.statusMu.Unlock()
	slog.InfoContext(ctx, "Restored rate snapshot", "last_updated", snap.LastUpdated)
	return true
}

// Refresh fetches a new snapshot, retrying with backoff. Concurrent callers
// share one fetch, which is not cancelled when any one of them gives up; a
// caller whose ctx ends returns ctx.Err() while the fetch carries on. On
// failure the previous snapshot is kept and the error is recorded in Status.
func (p *Provider) Refresh(ctx context.Context) error {
	ch := p.group.DoChan("refresh", func() (any, error) {
		// each attempt is still bounded by config.Timeout
		return nil, p.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshIfStale refreshes only when the current snapshot is missing or older
// than the refresh interval. It reports whether a refresh was attempted.
func (p *Provider) RefreshIfStale(ctx context.Context) (bool, error) {
	if !p.isStale(p.Current()) {
		return false, nil
	}
	return true, p.Refresh(ctx)
}

func (p *Provider) refresh(ctx context.Context) error {
	p.statusMu.Lock()
	p.status.Loading = true
	p.status.LastAttempt = p.now()
	p.statusMu.Unlock()

	snap, err := p.fetchWithRetry(ctx)

	p.statusMu.Lock()
	p.status.Loading = false
	p.status.Err = err
	if err == nil {
		p.status.LastSuccess = p.now()
	}
	p.statusMu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Rate refresh failed, keeping previous snapshot",
			"retries", p.config.MaxRetries, "has_snapshot", p.Current() != nil, "error", err)
		return err
	}

	if !p.swap(snap) {
		slog.DebugContext(ctx, "Discarding rate snapshot older than current",
			"last_updated", snap.LastUpdated)
		return nil
	}
	slog.InfoContext(ctx, "Rates refreshed", "rates", snap.Rates, "last_updated", snap.LastUpdated)
	p.persist(ctx, snap)
	return nil
}

func (p *Provider) fetchWithRetry(ctx context.Context) (*core.Snapshot, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		snap, err := p.fetchOnce(ctx)
		if err == nil {
			return snap, nil
		}
		lastErr = err

		if attempt >= p.config.MaxRetries {
			break
		}
		delay := Backoff(attempt)
		slog.WarnContext(ctx, "Rate fetch failed, retrying",
			"attempt", attempt+1, "delay", delay, "error", err)
		if err := p.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("fetch rates: %w", err)
		}
	}
	return nil, fmt.Errorf("fetch rates after %d retries: %w", p.config.MaxRetries, lastErr)
}

func (p *Provider) fetchOnce(ctx context.Context) (*core.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	snap, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// swap installs snap unless the current snapshot is at least as recent.
func (p *Provider) swap(snap *core.Snapshot) bool {
	for {
		cur := p.current.Load()
		if !snap.NewerThan(cur) {
			return false
		}
		if p.current.CompareAndSwap(cur, snap) {
			return true
		}
	}
}

func (p *Provider) persist(ctx context.Context, snap *core.Snapshot) {
	if p.store == nil {
		return
	}
	if err := storage.SaveJSON(ctx, p.store, storage.KeyRates, snap); err != nil {
		slog.ErrorContext(ctx, "Failed to persist rate snapshot", "error", err)
	}
}

func (p *Provider) isStale(snap *core.Snapshot) bool {
	return snap == nil || snap.Age(p.now()) >= p.config.RefreshInterval
}

// Start begins the refresh loop. Returns an error if already running.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("rate provider is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Rate provider started",
		"refresh_interval", p.config.RefreshInterval,
		"max_retries", p.config.MaxRetries)
	return nil
}

// Stop signals the loop to exit and waits for it. If ctx ends first the
// provider stays running and Stop may be called again to keep waiting.
func (p *Provider) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	if p.stopCh != nil {
		close(p.stopCh)
		p.stopCh = nil
	}
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Rate provider stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Rate provider stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *Provider) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Provider) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	// the loop owns cancellation through stopCh
	loopCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-loopCtx.Done():
		}
	}()

	ticker := time.NewTicker(p.config.RefreshInterval)
	defer ticker.Stop()

	// errors are recorded in Status and logged by refresh
	_, _ = p.RefreshIfStale(loopCtx)

	for {
		select {
		case <-stop:
			return
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			_ = p.Refresh(loopCtx)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
