package core

import (
	"context"
)

// Agent defines the capability set every agent must expose to interoperate
// with the Meepo platform.
//
// Implementations must:
//   - Respect context cancellation at every suspension point and report it
//     with an error matching ErrCancelled (see Cancelled)
//   - Leave their conversation state untouched when a call fails or is cancelled
//
// Calls against one instance must be serialized by the caller. An agent does
// not protect its conversation against overlapping OnMessages calls; hosts
// that need concurrency wrap the agent (see runner.Runner).
type Agent interface {
	Name() string
	Description() string

	// ProducedMessageTypes declares which message kinds the agent can emit.
	ProducedMessageTypes() []MessageKind

	// OnMessages consumes a batch of new messages, updates the agent's
	// conversation and returns exactly one response.
	OnMessages(ctx context.Context, messages []ChatMessage) (Response, error)

	// OnReset clears conversational state back to initialization.
	OnReset(ctx context.Context) error
}

// Streamer is implemented by agents that stream their response. The events
// channel yields zero or more chunk events followed by exactly one terminal
// event; both channels are closed when the stream ends. A stream is not
// restartable.
type Streamer interface {
	OnMessagesStream(ctx context.Context, messages []ChatMessage) (<-chan StreamEvent, <-chan error)
}

// State is an opaque serializable agent state mapping.
type State map[string]any

// Stateful is implemented by agents that export and import their state.
type Stateful interface {
	SaveState(ctx context.Context) (State, error)
	LoadState(ctx context.Context, state State) error
}

// Closer is implemented by agents holding external resources.
type Closer interface {
	Close(ctx context.Context) error
}

// OnMessagesStream streams a turn from a. Agents that do not implement
// Streamer get a synthesized stream holding the OnMessages result as its
// single terminal event.
func OnMessagesStream(ctx context.Context, a Agent, messages []ChatMessage) (<-chan StreamEvent, <-chan error) {
	if s, ok := a.(Streamer); ok {
		return s.OnMessagesStream(ctx, messages)
	}

	out := make(chan StreamEvent, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		resp, err := a.OnMessages(ctx, messages)
		if err != nil {
			errCh <- err
			return
		}

		select {
		case out <- StreamEvent{Source: a.Name(), Response: &resp}:
		case <-ctx.Done():
			errCh <- Cancelled(ctx)
		}
	}()

	return out, errCh
}

// SaveState exports the state of a, or an empty State when a is not Stateful.
func SaveState(ctx context.Context, a Agent) (State, error) {
	if s, ok := a.(Stateful); ok {
		return s.SaveState(ctx)
	}
	if ctx.Err() != nil {
		return nil, Cancelled(ctx)
	}
	return State{}, nil
}

// LoadState imports state into a. Agents that are not Stateful ignore it.
func LoadState(ctx context.Context, a Agent, state State) error {
	if s, ok := a.(Stateful); ok {
		return s.LoadState(ctx, state)
	}
	if ctx.Err() != nil {
		return Cancelled(ctx)
	}
	return nil
}

// Close releases resources held by a. Agents that are not Closers need no cleanup.
func Close(ctx context.Context, a Agent) error {
	if c, ok := a.(Closer); ok {
		return c.Close(ctx)
	}
	return nil
}

// CollectStream drains a stream, returning the chunk events and the terminal
// Response. It fails if the stream ends without a terminal event.
func CollectStream(ctx context.Context, events <-chan StreamEvent, errs <-chan error) ([]StreamEvent, *Response, error) {
	var (
		chunks []StreamEvent
		final  *Response
	)
	for events != nil {
		select {
		case <-ctx.Done():
			return chunks, nil, Cancelled(ctx)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.IsFinal() {
				final = ev.Response
				continue
			}
			chunks = append(chunks, ev)
		}
	}
	if err, ok := <-errs; ok && err != nil {
		return chunks, nil, err
	}
	if final == nil {
		return chunks, nil, &ValidationError{Field: "stream", Message: "stream ended without a terminal response"}
	}
	return chunks, final, nil
}
