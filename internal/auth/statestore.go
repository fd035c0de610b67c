package auth

import (
	"sync"
	"time"
)

// DefaultStateTTL bounds how long an OAuth state token stays redeemable.
const DefaultStateTTL = 10 * time.Minute

// StateStore binds CSRF state tokens to user IDs for the duration of an
// OAuth round-trip. Take consumes: a state can be redeemed at most once.
// Implementations backed by an external store survive process restarts.
type StateStore interface {
	Put(state, userID string)
	Take(state string) (userID string, ok bool)
}

// MemoryStateStore is a process-local StateStore with timed expiry. The
// clock is injected so expiry is testable without real timers.
type MemoryStateStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]stateEntry
}

type stateEntry struct {
	userID  string
	expires time.Time
}

// NewMemoryStateStore creates a store with the given TTL. A nil now defaults
// to time.Now.
func NewMemoryStateStore(ttl time.Duration, now func() time.Time) *MemoryStateStore {
	if now == nil {
		now = time.Now
	}

	return &MemoryStateStore{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]stateEntry),
	}
}

// Put registers the state, sweeping expired entries while it holds the lock.
func (s *MemoryStateStore) Put(state, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for st, entry := range s.entries {
		if entry.expires.Before(now) {
			delete(s.entries, st)
		}
	}

	s.entries[state] = stateEntry{userID: userID, expires: now.Add(s.ttl)}
}

// Take removes and returns the binding; expired or unknown states fail.
func (s *MemoryStateStore) Take(state string) (string, bool) {
	if state == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[state]
	if !ok {
		return "", false
	}

	delete(s.entries, state)

	if s.now().After(entry.expires) {
		return "", false
	}

	return entry.userID, true
}
