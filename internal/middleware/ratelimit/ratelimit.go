// Package ratelimit limits how often a client may call expensive endpoints.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Limiter is a fixed-window counter per client key.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window

	limit  int
	period time.Duration
	now    func() time.Time
}

type window struct {
	start time.Time
	count int
}

// Config holds rate limiter configuration
type Config struct {
	// Requests allowed per Period for one client
	Requests int
	Period   time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{Requests: 60, Period: time.Minute}
}

func NewLimiter(config Config) *Limiter {
	def := DefaultConfig()
	if config.Requests <= 0 {
		config.Requests = def.Requests
	}
	if config.Period <= 0 {
		config.Period = def.Period
	}
	return &Limiter{
		clients: make(map[string]*window),
		limit:   config.Requests,
		period:  config.Period,
		now:     time.Now,
	}
}

// Allow records a request from key and reports whether it is within the limit.
func (rl *Limiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[key]
	if !ok || now.Sub(w.start) >= rl.period {
		rl.clients[key] = &window{start: now, count: 1}
		rl.sweep(now)
		return true
	}
	w.count++
	return w.count <= rl.limit
}

// sweep drops windows that expired long ago. Called with mu held.
func (rl *Limiter) sweep(now time.Time) {
	for k, w := range rl.clients {
		if now.Sub(w.start) >= 10*rl.period {
			delete(rl.clients, k)
		}
	}
}

// ActiveClients returns the number of currently tracked clients
func (rl *Limiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// Middleware rejects requests over the limit with 429. onLimit may be nil.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.Allow(extractIP(r)) {
				w.Header().Set("Retry-After", strconv.Itoa(int(rl.period.Seconds())))
				if onLimit != nil {
					onLimit(w, r)
				} else {
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
