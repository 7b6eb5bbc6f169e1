package core

import (
	"context"
	"time"
)

// Session is a persisted checkpoint of one agent's exported State.
type Session struct {
	ID        string            `json:"id"`
	AgentName string            `json:"agent_name"`
	State     State             `json:"state"`
	Created   time.Time         `json:"created"`
	Updated   time.Time         `json:"updated"`
	Metadata  map[string]string `json:"metadata"`
}

// NewSession creates a new, empty session with the given ID.
func NewSession(id, agentName string) *Session {
	now := time.Now()
	return &Session{ID: id, AgentName: agentName, State: State{}, Created: now, Updated: now, Metadata: map[string]string{}}
}

// SetState replaces the checkpointed state updating the Updated timestamp.
func (s *Session) SetState(state State) {
	s.State = state
	s.Updated = time.Now()
}

// Clone returns a copy whose maps can be mutated independently. State values
// are copied shallowly.
func (s *Session) Clone() *Session {
	clone := &Session{
		ID:        s.ID,
		AgentName: s.AgentName,
		State:     make(State, len(s.State)),
		Created:   s.Created,
		Updated:   s.Updated,
		Metadata:  make(map[string]string, len(s.Metadata)),
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	for k, v := range s.Metadata {
		clone.Metadata[k] = v
	}
	return clone
}

// SessionStore persists agent checkpoints. Get returns an error matching
// ErrNotFound for unknown ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id string) error
}
