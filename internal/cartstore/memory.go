package cartstore

import (
	"context"
	"sync"

	"storefront-session/internal/domain"
)

type memoryStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewMemory returns an in-process Store. Used when no database is
// configured, and by tests.
func NewMemory() Store {
	return &memoryStore{carts: make(map[string]domain.Cart)}
}

func (s *memoryStore) Get(_ context.Context, sessionID string) (domain.Cart, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[sessionID]
	if !ok {
		return nil, false, nil
	}
	return cart.Clone(), true, nil
}

func (s *memoryStore) Set(_ context.Context, sessionID string, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[sessionID] = cart.Clone()
	return nil
}
