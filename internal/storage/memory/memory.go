package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"fintrack/internal/storage"
)

// Store keeps values in a map. Safe for concurrent use.
type Store struct {
	mu   sync.Mutex
	data map[string]string
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{data: make(map[string]string)}
}

// NewFromFile seeds a store from a JSON object. String members are stored
// verbatim; any other member is stored as its JSON text, so a seed can carry
// a transaction array directly. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed map[string]json.RawMessage
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	for k, raw := range seed {
		var str string
		if err := json.Unmarshal(raw, &str); err == nil {
			s.data[k] = str
			continue
		}
		s.data[k] = string(raw)
	}
	return s, nil
}

// Get implements storage.Store.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements storage.Store.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}
