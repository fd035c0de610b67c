package tokenstore

import (
	"context"
	"sync"
)

// Memory is an in-memory Store used in tests and single-process setups.
type Memory struct {
	mu    sync.RWMutex
	pairs map[string]TokenPair
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{pairs: make(map[string]TokenPair)}
}

// Get returns the stored pair or ErrNotConnected.
func (m *Memory) Get(_ context.Context, userID string) (TokenPair, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pair, ok := m.pairs[userID]
	if !ok {
		return TokenPair{}, ErrNotConnected
	}

	return pair, nil
}

// Put stores the pair, overwriting any previous value.
func (m *Memory) Put(_ context.Context, userID string, pair TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pairs[userID] = pair

	return nil
}
