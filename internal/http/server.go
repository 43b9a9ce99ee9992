// Package http exposes the ledger, preferences and exchange rates as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/rates"
	"fintrack/internal/settings"
)

// RateProvider is the read and refresh surface of the rate provider.
type RateProvider interface {
	Current() *core.Snapshot
	Conversion(target core.Currency) core.Conversion
	Status() rates.Status
	Refresh(ctx context.Context) error
}

// Options configures the server. Zero values select defaults.
type Options struct {
	Addr   string
	Logger *applog.Logger

	// MutationLimit applies to transaction and settings writes.
	MutationLimit ratelimit.Config
	// RefreshLimit applies to forced rate refreshes.
	RefreshLimit ratelimit.Config

	TrustedProxies []string
}

type Server struct {
	http.Server
	ledger *ledger.Ledger
	prefs  *settings.Preferences
	rates  RateProvider
	logger *applog.Logger

	clientIP        *security.ClientIPResolver
	mutationLimiter *ratelimit.Limiter
	refreshLimiter  *ratelimit.Limiter
	tracer          *trace.Middleware

	summaries *cache.LRUCache[summaryResponse]
	janitor   *cache.Janitor

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(l *ledger.Ledger, prefs *settings.Preferences, rp RateProvider, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Wrap(nil, applog.ComponentHTTP)
	}
	if opts.MutationLimit.Requests == 0 {
		opts.MutationLimit = ratelimit.DefaultConfig()
	}
	if opts.RefreshLimit.Requests == 0 {
		opts.RefreshLimit = ratelimit.Config{Requests: 6, Period: time.Minute}
	}

	resolver := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err, "cidr", cidr)
		}
	}

	s := &Server{
		ledger:          l,
		prefs:           prefs,
		rates:           rp,
		logger:          logger,
		clientIP:        resolver,
		mutationLimiter: ratelimit.NewLimiter(opts.MutationLimit),
		refreshLimiter:  ratelimit.NewLimiter(opts.RefreshLimit),
		summaries:       cache.NewLRUCache[summaryResponse](64, 5*time.Minute),
		janitor:         cache.NewJanitor(),
	}
	s.janitor.Register(s.summaries)
	s.janitor.Start(10 * time.Minute)
	s.tracer = trace.NewMiddleware(logger, resolver.ExtractClientIP)

	mux := http.NewServeMux()
	mutating := s.mutationLimiter.Middleware(resolver.ExtractClientIP, s.tooManyRequests)
	refreshing := s.refreshLimiter.Middleware(resolver.ExtractClientIP, s.tooManyRequests)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.Handle("POST /api/transactions", mutating(http.HandlerFunc(s.handleCreateTransaction)))
	mux.Handle("DELETE /api/transactions/{id}", mutating(http.HandlerFunc(s.handleDeleteTransaction)))
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	mux.HandleFunc("GET /api/currencies", s.handleCurrencies)
	mux.HandleFunc("GET /api/categories", s.handleCategories)

	mux.HandleFunc("GET /api/settings/currency", s.handleGetCurrency)
	mux.Handle("PUT /api/settings/currency", mutating(http.HandlerFunc(s.handleSetCurrency)))
	mux.HandleFunc("GET /api/settings/theme", s.handleGetTheme)
	mux.Handle("POST /api/settings/theme/toggle", mutating(http.HandlerFunc(s.handleToggleTheme)))

	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.Handle("POST /api/rates/refresh", refreshing(http.HandlerFunc(s.handleRefreshRates)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Metrics returns request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server. Later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.janitor.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).Warn("Rate limit exceeded",
		applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the ledger has been loaded. A missing rate
// snapshot does not make the service unready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ledger.Loaded() {
		http.Error(w, "loading", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
