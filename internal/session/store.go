package session

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// Store keeps sessions keyed by session id in an expirable LRU. Evicted and expired sessions are closed.
type Store struct {
	deps  Deps
	mu    sync.Mutex
	cache *lru.LRU[string, *Session]
}

// NewStore returns a store holding at most size sessions for ttl each. size <= 0 defaults to 1024.
func NewStore(deps Deps, size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = 1024
	}
	return &Store{
		deps: deps,
		cache: lru.NewLRU[string, *Session](size, func(_ string, s *Session) {
			s.Close()
		}, ttl),
	}
}

// Open returns the live session for sessionID, creating a pending one if absent or closed.
// Returns ErrSubjectMismatch when the session belongs to another user.
func (st *Store) Open(sessionID, userID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.cache.Get(sessionID); ok {
		if s.UserID() != userID {
			return nil, ErrSubjectMismatch
		}
		if s.State() != StateClosed {
			return s, nil
		}
	}
	s := New(sessionID, userID, st.deps)
	st.cache.Add(sessionID, s)
	return s, nil
}

// Get returns the session for sessionID if present.
func (st *Store) Get(sessionID string) (*Session, bool) {
	return st.cache.Get(sessionID)
}

// Remove closes and forgets the session (sign-out). Returns false if it was not present.
func (st *Store) Remove(sessionID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.cache.Peek(sessionID)
	if !ok {
		return false
	}
	st.cache.Remove(sessionID)
	s.Close()
	return true
}

// RefreshUser re-bootstraps every live session of userID, e.g. after a role or membership change.
// Returns the number of sessions refreshed.
func (st *Store) RefreshUser(ctx context.Context, userID string) int {
	n := 0
	for _, s := range st.cache.Values() {
		if s.UserID() != userID || s.State() == StateClosed {
			continue
		}
		_, _ = s.Refresh(ctx)
		n++
	}
	return n
}

// Len returns the number of cached sessions.
func (st *Store) Len() int { return st.cache.Len() }

// Purge closes and drops every session.
func (st *Store) Purge() { st.cache.Purge() }
