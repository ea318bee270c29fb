// Package kvtest provides an in-memory kv.Store for tests that need a
// substrate without a storage plugin behind it.
package kvtest

import (
	"context"
	"sync"
)

// Store is a map-backed kv.Store. Setting Err makes every call fail with it.
type Store struct {
	mu     sync.Mutex
	data   map[string]string
	writes int

	Err error
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get implements kv.Store.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", false, s.Err
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements kv.Store.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.data[key] = value
	s.writes++
	return nil
}

// Remove implements kv.Store.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.data, key)
	s.writes++
	return nil
}

// Raw returns the stored value for key, bypassing Err.
func (s *Store) Raw(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Put writes value directly, bypassing Err and the write counter.
func (s *Store) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Writes returns how many Set and Remove calls succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
