package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/meepo/core"
)

// RecordingAgent is an external chat agent double. It implements only the
// required agent operations, answers every call with a fixed reply and
// records what it received. It is safe for concurrent use.
type RecordingAgent struct {
	name  string
	reply string

	mu     sync.Mutex
	calls  [][]core.ChatMessage
	resets int
	err    error
}

// NewRecordingAgent creates a double named name answering with reply.
func NewRecordingAgent(name, reply string) *RecordingAgent {
	return &RecordingAgent{name: name, reply: reply}
}

// FailWith makes subsequent OnMessages calls return err.
func (r *RecordingAgent) FailWith(err error) *RecordingAgent {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
	return r
}

// Name returns the configured name.
func (r *RecordingAgent) Name() string { return r.name }

// Description returns a fixed description.
func (r *RecordingAgent) Description() string { return "recording test agent" }

// ProducedMessageTypes returns text only.
func (r *RecordingAgent) ProducedMessageTypes() []core.MessageKind {
	return []core.MessageKind{core.MessageKindText}
}

// OnMessages records messages and returns the reply.
func (r *RecordingAgent) OnMessages(ctx context.Context, messages []core.ChatMessage) (core.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]core.ChatMessage(nil), messages...))
	if ctx.Err() != nil {
		return core.Response{}, core.Cancelled(ctx)
	}
	if r.err != nil {
		return core.Response{}, r.err
	}
	return core.Response{ChatMessage: core.NewTextMessage(r.name, core.Text(r.reply))}, nil
}

// OnReset counts resets.
func (r *RecordingAgent) OnReset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets++
	return nil
}

// Calls returns the recorded message batches in call order.
func (r *RecordingAgent) Calls() [][]core.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]core.ChatMessage(nil), r.calls...)
}

// Resets returns how often OnReset was called.
func (r *RecordingAgent) Resets() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}
