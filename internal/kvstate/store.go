// Package kvstate owns a small mutex-guarded key-value table seeded into the
// standalone daemon's namespace so operators have mutable state to poke at.
package kvstate

import (
	"sort"
	"strings"
	"sync"
)

// Store is a temporary in-memory key-value table.
type Store struct {
	mu   sync.RWMutex
	vals map[string]string
}

func New() *Store {
	return &Store{vals: make(map[string]string)}
}

// Put upserts key=value. Empty keys are ignored.
func (s *Store) Put(key, value string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vals[key] = value
}

func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[strings.TrimSpace(key)]
	return v, ok
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.vals, strings.TrimSpace(key))
}

// Keys returns sorted keys, optionally filtered by prefix.
func (s *Store) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.vals))
	for k := range s.vals {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vals)
}
