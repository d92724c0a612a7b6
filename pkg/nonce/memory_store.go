package nonce

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu     sync.Mutex
	issued map[string]time.Time
	ttl    time.Duration
}

// Compile-time interface compliance check
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory nonce store with the default TTL.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		issued: make(map[string]time.Time),
		ttl:    DefaultTTL,
	}
}

// Issue records the nonce as redeemable.
func (s *MemoryStore) Issue(_ context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued[nonce] = time.Now().Add(s.ttl)
	return nil
}

// Consume redeems the nonce exactly once.
func (s *MemoryStore) Consume(_ context.Context, nonce string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.issued[nonce]
	if !ok || time.Now().After(expiry) {
		delete(s.issued, nonce)
		return ErrNonceUnknown
	}
	delete(s.issued, nonce)
	return nil
}
