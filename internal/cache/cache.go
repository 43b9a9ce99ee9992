// Package cache memoizes derived values, such as ledger summaries, whose keys
// capture every input they depend on.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache is the read/write surface shared by the caches in this package.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches whose entries expire.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically removes expired entries from registered caches.
type Janitor struct {
	mu     sync.Mutex
	caches []Cleaner

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewJanitor() *Janitor {
	return &Janitor{}
}

func (j *Janitor) Register(c Cleaner) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.caches = append(j.caches, c)
}

// Start runs a sweep every interval until Stop is called. Starting a running
// janitor is a no-op.
func (j *Janitor) Start(interval time.Duration) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.running {
		return
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	go j.run(interval, j.stopCh, j.doneCh)
}

func (j *Janitor) run(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := j.Sweep(); n > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-stop:
			return
		}
	}
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
func (j *Janitor) Sweep() int {
	j.mu.Lock()
	caches := append([]Cleaner(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop halts the sweep loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	stop, done := j.stopCh, j.doneCh
	j.mu.Unlock()

	close(stop)
	<-done
}
