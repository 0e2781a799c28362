package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process map. Suitable for
// single-process deployments and tests; tokens do not survive restarts.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Token
}

// NewMemoryStore constructs an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

// Insert persists a newly issued token.
func (s *MemoryStore) Insert(_ context.Context, t Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[t.Value] = t
	return nil
}

// Get fetches a token by its opaque value.
func (s *MemoryStore) Get(_ context.Context, value string) (Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tokens[value]
	if !ok {
		return Token{}, ErrTokenNotFound
	}
	return t, nil
}

// Invalidate flips a token to invalid. Returns false when the token is
// absent or already invalid.
func (s *MemoryStore) Invalidate(_ context.Context, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[value]
	if !ok || !t.Valid {
		return false, nil
	}
	t.Valid = false
	s.tokens[value] = t
	return true, nil
}

// DeleteExpired removes every token at or past its expiry.
func (s *MemoryStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for value, t := range s.tokens {
		if !t.ExpiresAt.After(now) {
			delete(s.tokens, value)
			removed++
		}
	}
	return removed, nil
}

var _ Store = (*MemoryStore)(nil)
