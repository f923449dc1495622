// Package memory implements an in-memory session store with expiry.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/pkg/store/metadata"
)

type entry struct {
	user      metadata.UserID
	expiresAt time.Time
}

// MemorySessionStore implements session.SessionStore using a map.
//
// Expired entries are dropped lazily on Resolve; there is no background
// sweeper since the store is meant for tests and single-node development.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]entry

	// now is replaceable in tests
	now func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]entry),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Resolve(ctx context.Context, token string) (metadata.UserID, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	e, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if s.now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock: the token may have been refreshed.
		if cur, ok := s.sessions[token]; ok && s.now().After(cur.expiresAt) {
			delete(s.sessions, token)
		}
		s.mu.Unlock()
		return "", false, nil
	}
	return e.user, true, nil
}

func (s *MemorySessionStore) Put(ctx context.Context, token string, user metadata.UserID, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = entry{user: user, expiresAt: s.now().Add(ttl)}
	return nil
}

func (s *MemorySessionStore) Delete(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *MemorySessionStore) Close() error {
	return nil
}
