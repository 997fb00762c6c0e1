package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/garyellow/campus-navigator/internal/dialogue"
)

// MemoryStore keeps sessions in process. Idle sessions expire after ttl.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a store whose entries expire ttl after their last
// save. Expired entries are swept every cleanup interval.
func NewMemoryStore(ttl, cleanup time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryStore{cache: cache.New(ttl, cleanup)}
}

// Load returns a copy of the stored state.
func (s *MemoryStore) Load(_ context.Context, sessionID string) (*dialogue.State, error) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, ErrNotFound
	}
	st, ok := v.(*dialogue.State)
	if !ok {
		return nil, ErrCorrupt
	}
	return st.Clone(), nil
}

// Save stores a copy of st and refreshes its expiry.
func (s *MemoryStore) Save(_ context.Context, sessionID string, st *dialogue.State) error {
	s.cache.SetDefault(sessionID, st.Clone())
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	return nil
}

// Count returns the number of sessions, including expired ones not yet swept.
func (s *MemoryStore) Count(context.Context) (int, error) {
	return s.cache.ItemCount(), nil
}
