// Package meepo provides a high-level façade for hosting agents. Most
// applications interact with this package by:
//  1. Creating a Meepo via New() (optionally overriding the session store, adapter registry or logger)
//  2. Registering agents, either native MeepoAgents or external agents that are adapted on the way in, or declaring them in a config file (LoadConfig)
//  3. Sending messages to agents by name (Send, SendText, Stream)
//
// Every registered agent is hosted by a runner.Runner, so calls against one
// agent are serialized and its state is checkpointed after each turn. Calls
// against different agents run independently.
package meepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/hupe1980/meepo/adapter"
	"github.com/hupe1980/meepo/agent"
	"github.com/hupe1980/meepo/config"
	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/logging"
	"github.com/hupe1980/meepo/runner"
	"github.com/hupe1980/meepo/session"
)

// Options configures the Meepo instance.
type Options struct {
	// SessionStore receives agent checkpoints (defaults to in-memory).
	SessionStore core.SessionStore
	// Registry adapts external agents (defaults to adapter.DefaultRegistry).
	Registry *adapter.Registry
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Meepo hosts named agents. It is safe for concurrent use.
type Meepo struct {
	opts    Options
	logger  logging.Logger
	mu      sync.RWMutex
	runners map[string]*runner.Runner
}

// New creates a new Meepo instance with optional overrides.
func New(optFns ...func(o *Options)) *Meepo {
	opts := Options{
		SessionStore: session.NewInMemoryStore(),
		Registry:     adapter.DefaultRegistry,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Meepo{opts: opts, logger: logging.OrNoOp(opts.Logger), runners: make(map[string]*runner.Runner)}
}

// Register hosts a. MeepoAgents and adapters are hosted as they are; any
// other value is adapted through the registry. Agent names must be unique.
func (m *Meepo) Register(a any) (core.Agent, error) {
	var hosted core.Agent
	switch v := a.(type) {
	case *agent.MeepoAgent:
		hosted = v
	case *adapter.ChatAgentAdapter:
		hosted = v
	default:
		adapted, err := m.opts.Registry.Adapt(a)
		if err != nil {
			return nil, err
		}
		hosted = adapted
	}

	name := hosted.Name()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.runners[name]; dup {
		return nil, &core.ValidationError{Field: "name", Value: name, Message: "agent already registered"}
	}
	m.runners[name] = runner.New(hosted, func(o *runner.Options) {
		o.SessionStore = m.opts.SessionStore
		o.Logger = m.logger
	})
	m.logger.Info("meepo.register", "agent", name, "type", fmt.Sprintf("%T", hosted))
	return hosted, nil
}

// LoadConfig builds and registers every agent declared in cfg. optFns apply
// to each agent, after the declared values.
func (m *Meepo) LoadConfig(cfg *config.Config, optFns ...func(o *agent.Options)) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, spec := range cfg.Agents {
		fns := append([]func(o *agent.Options){func(o *agent.Options) { o.Logger = m.logger }}, optFns...)
		a, err := agent.FromConfig(spec.Spec(), fns...)
		if err != nil {
			return fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		if _, err := m.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// Agent returns the hosted agent named name.
func (m *Meepo) Agent(name string) (core.Agent, bool) {
	r, err := m.runner(name)
	if err != nil {
		return nil, false
	}
	return r.Agent(), true
}

// Agents lists the hosted agent names in sorted order.
func (m *Meepo) Agents() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := lo.Keys(m.runners)
	sort.Strings(names)
	return names
}

// Send delivers messages to the named agent and returns its response.
func (m *Meepo) Send(ctx context.Context, name string, messages ...core.ChatMessage) (core.Response, error) {
	r, err := m.runner(name)
	if err != nil {
		return core.Response{}, err
	}
	return r.Run(ctx, messages...)
}

// SendText delivers text as a user message.
func (m *Meepo) SendText(ctx context.Context, name, text string) (string, error) {
	r, err := m.runner(name)
	if err != nil {
		return "", err
	}
	resp, err := r.RunTask(ctx, text)
	if err != nil {
		return "", err
	}
	return resp.ChatMessage.Content.String(), nil
}

// Stream delivers messages to the named agent and streams the turn.
func (m *Meepo) Stream(ctx context.Context, name string, messages ...core.ChatMessage) (<-chan core.StreamEvent, <-chan error) {
	r, err := m.runner(name)
	if err != nil {
		events := make(chan core.StreamEvent)
		errs := make(chan error, 1)
		errs <- err
		close(events)
		close(errs)
		return events, errs
	}
	return r.RunStream(ctx, messages...)
}

// Reset resets the named agent.
func (m *Meepo) Reset(ctx context.Context, name string) error {
	r, err := m.runner(name)
	if err != nil {
		return err
	}
	return r.Reset(ctx)
}

// Resume restores the named agent from its last checkpoint.
func (m *Meepo) Resume(ctx context.Context, name string) error {
	r, err := m.runner(name)
	if err != nil {
		return err
	}
	return r.Resume(ctx)
}

// Close closes every hosted agent and unregisters them.
func (m *Meepo) Close(ctx context.Context) error {
	m.mu.Lock()
	runners := m.runners
	m.runners = make(map[string]*runner.Runner)
	m.mu.Unlock()

	var errs []error
	for _, r := range runners {
		if err := r.Close(ctx); err != nil && !errors.Is(err, core.ErrMissingCapability) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Meepo) runner(name string) (*runner.Runner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.runners[name]
	if !ok {
		return nil, fmt.Errorf("agent %s: %w", name, core.ErrNotFound)
	}
	return r, nil
}
