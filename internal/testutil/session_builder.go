package testutil

import (
	"github.com/hupe1980/meepo/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1", "bot").State("k", "v").Metadata("owner", "me").Build()
type SessionBuilder struct {
	id       string
	agent    string
	state    core.State
	metadata map[string]string
}

// NewSessionBuilder creates a new builder for a checkpoint of agent.
func NewSessionBuilder(id, agent string) *SessionBuilder {
	return &SessionBuilder{id: id, agent: agent, state: core.State{}, metadata: map[string]string{}}
}

// State sets or overwrites a state key/value pair on the resulting session (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// Metadata sets a metadata entry (chainable).
func (b *SessionBuilder) Metadata(key, val string) *SessionBuilder {
	b.metadata[key] = val
	return b
}

// Build returns a *core.Session with pre-populated state and metadata.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id, b.agent)
	for k, v := range b.state {
		s.State[k] = v
	}
	for k, v := range b.metadata {
		s.Metadata[k] = v
	}
	return s
}
