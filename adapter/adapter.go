package adapter

import (
	"context"

	"github.com/hupe1980/meepo/core"
)

// ChatAgent is the shape of an agent built against an external chat-agent
// framework: the required operations only. Streaming, state export and
// resource release are detected on the concrete value.
type ChatAgent interface {
	Name() string
	Description() string
	ProducedMessageTypes() []core.MessageKind
	OnMessages(ctx context.Context, messages []core.ChatMessage) (core.Response, error)
	OnReset(ctx context.Context) error
}

// Options configures a ChatAgentAdapter.
type Options struct {
	// Strict reports optional operations the wrapped agent lacks with
	// core.MissingCapabilityError instead of applying the contract defaults.
	Strict bool
}

// ChatAgentAdapter forwards the agent contract to a wrapped ChatAgent. It
// does not own the wrapped agent; Close is forwarded but other holders may
// keep using it.
type ChatAgentAdapter struct {
	agent ChatAgent
	opts  Options
}

// New wraps a.
func New(a ChatAgent, optFns ...func(o *Options)) *ChatAgentAdapter {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ChatAgentAdapter{agent: a, opts: opts}
}

// Unwrap returns the wrapped agent for framework specific calls.
func (c *ChatAgentAdapter) Unwrap() ChatAgent { return c.agent }

// Name returns the wrapped agent's current name.
func (c *ChatAgentAdapter) Name() string { return c.agent.Name() }

// Description returns the wrapped agent's current description.
func (c *ChatAgentAdapter) Description() string { return c.agent.Description() }

// ProducedMessageTypes implements core.Agent.
func (c *ChatAgentAdapter) ProducedMessageTypes() []core.MessageKind {
	return c.agent.ProducedMessageTypes()
}

// OnMessages implements core.Agent.
func (c *ChatAgentAdapter) OnMessages(ctx context.Context, messages []core.ChatMessage) (core.Response, error) {
	return c.agent.OnMessages(ctx, messages)
}

// OnReset implements core.Agent.
func (c *ChatAgentAdapter) OnReset(ctx context.Context) error {
	return c.agent.OnReset(ctx)
}

// OnMessagesStream forwards the wrapped agent's own stream unchanged. Agents
// without one get the synthesized single-event stream of core.OnMessagesStream.
func (c *ChatAgentAdapter) OnMessagesStream(ctx context.Context, messages []core.ChatMessage) (<-chan core.StreamEvent, <-chan error) {
	if _, ok := c.agent.(core.Streamer); !ok && c.opts.Strict {
		return failedStream(c.missing("OnMessagesStream"))
	}
	return core.OnMessagesStream(ctx, c.agent, messages)
}

// SaveState implements core.Stateful. Agents without state export an empty State.
func (c *ChatAgentAdapter) SaveState(ctx context.Context) (core.State, error) {
	if _, ok := c.agent.(core.Stateful); !ok && c.opts.Strict {
		return nil, c.missing("SaveState")
	}
	return core.SaveState(ctx, c.agent)
}

// LoadState implements core.Stateful.
func (c *ChatAgentAdapter) LoadState(ctx context.Context, state core.State) error {
	if _, ok := c.agent.(core.Stateful); !ok && c.opts.Strict {
		return c.missing("LoadState")
	}
	return core.LoadState(ctx, c.agent, state)
}

// Close implements core.Closer.
func (c *ChatAgentAdapter) Close(ctx context.Context) error {
	if _, ok := c.agent.(core.Closer); !ok && c.opts.Strict {
		return c.missing("Close")
	}
	return core.Close(ctx, c.agent)
}

func (c *ChatAgentAdapter) missing(member string) error {
	return &core.MissingCapabilityError{Member: member, Wrapper: "ChatAgentAdapter"}
}

func failedStream(err error) (<-chan core.StreamEvent, <-chan error) {
	out := make(chan core.StreamEvent)
	errCh := make(chan error, 1)
	errCh <- err
	close(out)
	close(errCh)
	return out, errCh
}
