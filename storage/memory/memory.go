// Package memory provides a process-local storage driver, used as the
// default and throughout the test suites.
package memory

import (
	"context"
	"sync"

	"github.com/vector/brandibble-go/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps items in a mutex-guarded map.
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{items: make(map[string]string)}
}

func (s *Store) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (s *Store) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

func (s *Store) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]string)
	return nil
}
