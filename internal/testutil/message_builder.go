package testutil

import (
	"time"

	"github.com/hupe1980/meepo/core"
)

// MessageBuilder provides a fluent helper for constructing chat messages in tests.
// Example:
//
//	msg := NewMessage().From("alice").Text("hello").Build()
//
// Chain only the parts you need; the source defaults to "user".
type MessageBuilder struct {
	id     string
	kind   core.MessageKind
	source string
	role   string
	items  []core.ContentItem
	call   *core.FunctionCall
	at     time.Time
}

// NewMessage creates a builder for a text message authored by "user".
func NewMessage() *MessageBuilder {
	return &MessageBuilder{kind: core.MessageKindText, source: string(core.RoleUser)}
}

// ID overrides the generated message ID (chainable).
func (b *MessageBuilder) ID(id string) *MessageBuilder { b.id = id; return b }

// From sets the producing source (chainable).
func (b *MessageBuilder) From(source string) *MessageBuilder { b.source = source; return b }

// Role sets the raw role hint (chainable).
func (b *MessageBuilder) Role(role string) *MessageBuilder { b.role = role; return b }

// At sets the creation timestamp (chainable).
func (b *MessageBuilder) At(t time.Time) *MessageBuilder { b.at = t; return b }

// Text appends a text item (chainable).
func (b *MessageBuilder) Text(t string) *MessageBuilder {
	b.items = append(b.items, core.TextItem(t))
	return b
}

// Data appends a structured item, turning the content multipart (chainable).
func (b *MessageBuilder) Data(d map[string]any) *MessageBuilder {
	b.items = append(b.items, core.DataItem(d))
	return b
}

// FunctionCall marks the message as a function call request (chainable).
func (b *MessageBuilder) FunctionCall(name string, args map[string]any) *MessageBuilder {
	fc := core.NewFunctionCall(name, args)
	b.kind = core.MessageKindFunctionCall
	b.call = &fc
	return b
}

// FunctionResult marks the message as the result of a function call (chainable).
func (b *MessageBuilder) FunctionResult(name string, result any) *MessageBuilder {
	fc := core.NewFunctionCall(name, nil).WithResult(result)
	b.kind = core.MessageKindFunctionResult
	b.call = &fc
	return b
}

// Build constructs the core.ChatMessage value.
func (b *MessageBuilder) Build() core.ChatMessage {
	msg := core.NewTextMessage(b.source, b.content())
	msg.Kind = b.kind
	msg.Role = b.role
	msg.FunctionCall = b.call
	if b.id != "" {
		msg.ID = b.id
	}
	if !b.at.IsZero() {
		msg.CreatedAt = b.at
	}
	return msg
}

func (b *MessageBuilder) content() core.Content {
	if len(b.items) == 1 {
		if t, ok := b.items[0].(core.TextItem); ok {
			return core.Text(string(t))
		}
	}
	if len(b.items) == 0 {
		return core.Text("")
	}
	return core.Parts(b.items...)
}
