package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/hupe1980/meepo/core"
)

// InMemoryStore is a volatile SessionStore storing agent checkpoints in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral hosts. Sessions are cloned on the way in and out so
// callers cannot mutate stored state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// Get returns a clone of the stored session or an error matching
// core.ErrNotFound.
func (s *InMemoryStore) Get(ctx context.Context, id string) (*core.Session, error) {
	if ctx.Err() != nil {
		return nil, core.Cancelled(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if session, ok := s.sessions[id]; ok {
		return session.Clone(), nil
	}
	return nil, fmt.Errorf("session %s: %w", id, core.ErrNotFound)
}

// Save stores a clone of the provided session, replacing any previous one
// with the same id.
func (s *InMemoryStore) Save(ctx context.Context, session *core.Session) error {
	if ctx.Err() != nil {
		return core.Cancelled(ctx)
	}
	if session == nil || session.ID == "" {
		return &core.ValidationError{Field: "id", Message: "session id is required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	if ctx.Err() != nil {
		return core.Cancelled(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// IDs returns the stored session ids in sorted order.
func (s *InMemoryStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := lo.Keys(s.sessions)
	sort.Strings(ids)
	return ids
}
