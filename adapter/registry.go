package adapter

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/hupe1980/meepo/core"
)

// ChatAgentShape is the registry name of the chat-agent shape.
const ChatAgentShape = "chat_agent"

// Entry pairs a shape predicate with the constructor of its adapter.
type Entry struct {
	Name  string
	Match func(v any) bool
	New   func(v any) (core.Agent, error)
}

// Registry is an ordered list of external agent shapes. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewRegistry creates a registry holding entries in order.
func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: append([]Entry(nil), entries...)}
}

// DefaultRegistry holds exactly the chat-agent shape.
var DefaultRegistry = NewRegistry(ChatAgentEntry())

// ChatAgentEntry returns the registry entry adapting any ChatAgent.
func ChatAgentEntry() Entry {
	return Entry{
		Name: ChatAgentShape,
		Match: func(v any) bool {
			_, ok := v.(ChatAgent)
			return ok
		},
		New: func(v any) (core.Agent, error) {
			return New(v.(ChatAgent)), nil
		},
	}
}

// Register appends e. Entries registered earlier take precedence.
func (r *Registry) Register(e Entry) error {
	if e.Name == "" || e.Match == nil || e.New == nil {
		return &core.ValidationError{Field: "entry", Value: e.Name, Message: "name, match and constructor are required"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if existing.Name == e.Name {
			return &core.ValidationError{Field: "name", Value: e.Name, Message: "shape already registered"}
		}
	}
	r.entries = append(r.entries, e)
	return nil
}

// Supported lists the registered shape names in check order.
func (r *Registry) Supported() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Map(r.entries, func(e Entry, _ int) string { return e.Name })
}

// Adapt returns the adapter of the first entry matching v.
func (r *Registry) Adapt(v any) (core.Agent, error) {
	r.mu.RLock()
	entry, ok := lo.Find(r.entries, func(e Entry) bool { return v != nil && e.Match(v) })
	r.mu.RUnlock()

	if !ok {
		return nil, &core.UnsupportedTypeError{Kind: "agent", Type: fmt.Sprintf("%T", v), Supported: r.Supported()}
	}
	return entry.New(v)
}

// Adapt adapts v through DefaultRegistry.
func Adapt(v any) (core.Agent, error) { return DefaultRegistry.Adapt(v) }

// Register adds e to DefaultRegistry.
func Register(e Entry) error { return DefaultRegistry.Register(e) }

// Supported lists the shapes DefaultRegistry accepts.
func Supported() []string { return DefaultRegistry.Supported() }
