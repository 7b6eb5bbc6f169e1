package core

import (
	"encoding/json"
	"time"
)

// Message is one turn in a Conversation. Treat it as immutable after
// construction; build a new Message instead of mutating role or content.
type Message struct {
	ID           string        `json:"message_id"`
	Role         Role          `json:"role"`
	Content      Content       `json:"content"`
	Name         string        `json:"name,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
}

// MessageOption customizes a Message during construction.
type MessageOption func(m *Message)

// WithName sets the speaker / function identity.
func WithName(name string) MessageOption {
	return func(m *Message) { m.Name = name }
}

// WithFunctionCall attaches a function call to the message.
func WithFunctionCall(fc FunctionCall) MessageOption {
	return func(m *Message) { m.FunctionCall = &fc }
}

// NewMessage builds a Message from a raw role string. The role is validated
// against the Role enumeration.
func NewMessage(role string, content Content, opts ...MessageOption) (Message, error) {
	r, err := ParseRole(role)
	if err != nil {
		return Message{}, err
	}
	return newMessage(r, content, opts...), nil
}

func newMessage(role Role, content Content, opts ...MessageOption) Message {
	m := Message{
		ID:        NewID(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string, opts ...MessageOption) Message {
	return newMessage(RoleSystem, Text(content), opts...)
}

// NewUserMessage creates a user message.
func NewUserMessage(content Content, opts ...MessageOption) Message {
	return newMessage(RoleUser, content, opts...)
}

// NewAssistantMessage creates an assistant message, optionally carrying a
// function call via WithFunctionCall.
func NewAssistantMessage(content Content, opts ...MessageOption) Message {
	return newMessage(RoleAssistant, content, opts...)
}

// NewToolMessage creates a tool message.
func NewToolMessage(content string, opts ...MessageOption) Message {
	return newMessage(RoleTool, Text(content), opts...)
}

// NewFunctionMessage creates a function message; name identifies the function.
func NewFunctionMessage(content, name string) Message {
	return newMessage(RoleFunction, Text(content), WithName(name))
}

// ToMap converts the message into the shape consumed by text-generation
// backends: {role, content, [name], [function_call]}.
func (m Message) ToMap() map[string]any {
	out := map[string]any{
		"role":    m.Role.String(),
		"content": m.Content.Value(),
	}
	if m.Name != "" {
		out["name"] = m.Name
	}
	if m.FunctionCall != nil {
		out["function_call"] = m.FunctionCall.ToMap()
	}
	return out
}

// UnmarshalJSON decodes a message, validating its role and filling in an id
// and timestamp when absent.
func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	*m = Message(a)
	return nil
}
