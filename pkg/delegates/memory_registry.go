package delegates

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryRegistry is an in-process Registry for tests and local development.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string][]Delegate
}

// Compile-time interface compliance check
var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string][]Delegate)}
}

func memoryKey(chainID int64, safe common.Address) string {
	return fmt.Sprintf("%d:%s", chainID, safe.Hex())
}

// Add registers a delegate entry.
func (r *MemoryRegistry) Add(chainID int64, d Delegate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := memoryKey(chainID, d.Safe)
	r.entries[key] = append(r.entries[key], d)
}

// GetDelegates returns the entries registered for (chainID, safe).
func (r *MemoryRegistry) GetDelegates(_ context.Context, chainID int64, safe common.Address) (Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := r.entries[memoryKey(chainID, safe)]
	page := Page{Count: len(results)}
	page.Results = append(page.Results, results...)
	return page, nil
}
