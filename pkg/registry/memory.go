package registry

import (
	"context"
	"sync"

	"github.com/Mindburn-Labs/timelock/pkg/contracts"
)

// MemoryStore implements Store in memory.
// Thread-safe via RWMutex.
type MemoryStore struct {
	mu    sync.RWMutex
	flags map[contracts.TxID]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{flags: make(map[contracts.TxID]bool)}
}

func (s *MemoryStore) IsQueued(ctx context.Context, id contracts.TxID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[id], nil
}

func (s *MemoryStore) SetQueued(ctx context.Context, id contracts.TxID, queued bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[id] = queued
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
