// Package memory is an in-process KV backend for development and tests.
package memory

import (
	"context"
	"sync"
)

type Store struct {
	mu   sync.Mutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// NewWithData seeds the store; values are copied.
func NewWithData(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.data[k] = append([]byte(nil), v...)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }
