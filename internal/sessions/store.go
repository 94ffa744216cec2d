// Package sessions maps a browser's session id to its active
// conversation, so a returning visitor lands back in the same thread.
package sessions

import (
	"context"
	"sync"
	"time"
)

// Store resolves client session ids to conversation ids.
type Store interface {
	Link(ctx context.Context, sessionID, conversationID string) error
	Resolve(ctx context.Context, sessionID string) (string, bool, error)
	Forget(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	conversationID string
	expiresAt      time.Time
}

// MemoryStore keeps session mappings in a map, for tests and for
// running without Redis. Expired entries are dropped on read.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryStore creates an in-memory session store. A zero ttl means
// entries never expire.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

// Link records sessionID -> conversationID.
func (s *MemoryStore) Link(ctx context.Context, sessionID, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{conversationID: conversationID}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.entries[sessionID] = entry
	return nil
}

// Resolve returns the conversation linked to the session, if any.
func (s *MemoryStore) Resolve(ctx context.Context, sessionID string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.entries, sessionID)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.conversationID, true, nil
}

// Forget removes the session mapping.
func (s *MemoryStore) Forget(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}
