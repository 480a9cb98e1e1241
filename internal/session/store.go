// Package session holds the authentication token attached to backend calls.
//
// The store carries at most one opaque token. It owns no expiry logic:
// expiry is signaled by the backend rejecting the session, and the request
// executor clears the store in response.
package session

import "sync"

// Store is the only legal way to read or mutate session state.
// Implementations must be safe for concurrent use: a Get racing a Clear
// observes either the old token or absence, never a partial write.
type Store interface {
	// Get returns the held token, if any.
	Get() (string, bool)
	// Set overwrites the held token unconditionally.
	Set(token string) error
	// Clear removes the held token. Idempotent.
	Clear() error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	held  bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.held
}

func (s *MemoryStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.held = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.held = false
	return nil
}
