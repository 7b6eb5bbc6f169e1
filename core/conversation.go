package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v2"
)

// Conversation is the ordered transcript one agent instance tracks. Message
// order is insertion order. A Conversation is owned by a single agent and is
// not safe for concurrent mutation; callers serialize access.
type Conversation struct {
	ID        string
	Metadata  map[string]any
	CreatedAt time.Time
	messages  []Message
}

// NewConversation creates an empty conversation with a fresh id.
func NewConversation(optFns ...func(c *Conversation)) *Conversation {
	c := &Conversation{
		ID:        NewID(),
		Metadata:  map[string]any{},
		CreatedAt: time.Now(),
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

// AddMessage appends a message.
func (c *Conversation) AddMessage(m Message) { c.messages = append(c.messages, m) }

// AddSystemMessage appends a system message.
func (c *Conversation) AddSystemMessage(content string, opts ...MessageOption) {
	c.AddMessage(NewSystemMessage(content, opts...))
}

// AddUserMessage appends a user message.
func (c *Conversation) AddUserMessage(content Content, opts ...MessageOption) {
	c.AddMessage(NewUserMessage(content, opts...))
}

// AddAssistantMessage appends an assistant message.
func (c *Conversation) AddAssistantMessage(content Content, opts ...MessageOption) {
	c.AddMessage(NewAssistantMessage(content, opts...))
}

// AddToolMessage appends a tool message.
func (c *Conversation) AddToolMessage(content string, opts ...MessageOption) {
	c.AddMessage(NewToolMessage(content, opts...))
}

// AddFunctionMessage appends a function message.
func (c *Conversation) AddFunctionMessage(content, name string) {
	c.AddMessage(NewFunctionMessage(content, name))
}

// Messages returns a copy of the messages in chronological order.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int { return len(c.messages) }

// LastMessage returns the most recently added message, or false when empty.
func (c *Conversation) LastMessage() (Message, bool) {
	if len(c.messages) == 0 {
		return Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Clear removes all messages. ID and Metadata are retained.
func (c *Conversation) Clear() { c.messages = nil }

// Clone returns a copy safe for independent appends.
func (c *Conversation) Clone() *Conversation {
	md := make(map[string]any, len(c.Metadata))
	for k, v := range c.Metadata {
		md[k] = v
	}
	return &Conversation{
		ID:        c.ID,
		Metadata:  md,
		CreatedAt: c.CreatedAt,
		messages:  c.Messages(),
	}
}

// ToMaps converts every message via Message.ToMap.
func (c *Conversation) ToMaps() []map[string]any {
	return lo.Map(c.messages, func(m Message, _ int) map[string]any { return m.ToMap() })
}

type conversationJSON struct {
	ID        string         `json:"conversation_id"`
	Messages  []Message      `json:"messages"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// MarshalJSON encodes the conversation including its messages.
func (c *Conversation) MarshalJSON() ([]byte, error) {
	msgs := c.messages
	if msgs == nil {
		msgs = []Message{}
	}
	return json.Marshal(conversationJSON{
		ID:        c.ID,
		Messages:  msgs,
		Metadata:  c.Metadata,
		CreatedAt: c.CreatedAt,
	})
}

// UnmarshalJSON decodes a conversation; every message role is validated.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var cj conversationJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	if cj.ID == "" {
		cj.ID = NewID()
	}
	if cj.Metadata == nil {
		cj.Metadata = map[string]any{}
	}
	c.ID = cj.ID
	c.Metadata = cj.Metadata
	c.CreatedAt = cj.CreatedAt
	c.messages = cj.Messages
	return nil
}

// ExportYAML renders a human readable transcript of the conversation.
func (c *Conversation) ExportYAML() (string, error) {
	doc := yaml.MapSlice{
		{Key: "conversation_id", Value: c.ID},
		{Key: "created_at", Value: c.CreatedAt.Format(time.RFC3339)},
		{Key: "messages", Value: c.ToMaps()},
	}
	if len(c.Metadata) > 0 {
		doc = append(doc, yaml.MapItem{Key: "metadata", Value: c.Metadata})
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("error marshaling conversation to YAML: %w", err)
	}
	return string(out), nil
}
