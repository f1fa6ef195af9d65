package memory

import (
	"context"
	"errors"
	"sync"

	"gigfin/internal/storage"
)

// Store keeps blobs in process memory. Useful for tests and throwaway runs.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
	puts  int

	// FailPuts makes every Put fail, to exercise error paths.
	FailPuts bool
}

// ErrInjected is returned by Put when FailPuts is set.
var ErrInjected = errors.New("memory: injected put failure")

func New() *Store {
	return &Store{items: map[string][]byte{}}
}

// NewWithData seeds the store, e.g. with a blob written by another backend.
func NewWithData(data map[string][]byte) *Store {
	s := New()
	for k, v := range data {
		s.items[k] = append([]byte(nil), v...)
	}
	return s
}

// Get returns a copy of the stored value.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPuts {
		return ErrInjected
	}
	s.items[key] = append([]byte(nil), value...)
	s.puts++
	return nil
}

// Puts returns how many successful writes the store has seen.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// SetFailPuts toggles write failures under the store's lock.
func (s *Store) SetFailPuts(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailPuts = fail
}
