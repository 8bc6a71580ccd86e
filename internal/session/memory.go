package session

import (
	"context"
	"sync"

	"golang.org/x/oauth2"
)

// MemoryStore is an in-memory Store, used by tests and as a fallback when no
// database is configured.
type MemoryStore struct {
	mu    sync.Mutex
	token *oauth2.Token
	state string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadToken returns the stored token, or nil when logged out.
func (s *MemoryStore) LoadToken(_ context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// SaveToken replaces the stored token.
func (s *MemoryStore) SaveToken(_ context.Context, token *oauth2.Token) error {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// SaveState persists the anti-forgery state value.
func (s *MemoryStore) SaveState(_ context.Context, state string) error {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	return nil
}

// TakeState returns the stored state and clears it.
func (s *MemoryStore) TakeState(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	s.state = ""
	return state, nil
}

// Clear removes all stored session fields.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.state = ""
	s.mu.Unlock()
	return nil
}

var _ Store = (*MemoryStore)(nil)
