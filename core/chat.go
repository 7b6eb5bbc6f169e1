package core

import (
	"time"
)

// MessageKind tags the kind of a ChatMessage an agent consumes or produces.
type MessageKind string

const (
	MessageKindText           MessageKind = "text"
	MessageKindFunctionCall   MessageKind = "function_call"
	MessageKindFunctionResult MessageKind = "function_result"
	MessageKindStop           MessageKind = "stop"
)

// ChatMessage is a framework-facing turn exchanged between agents. Unlike
// Message it carries the producing Source instead of a Role; agents map it
// onto a Role through a RoleMapper.
type ChatMessage struct {
	ID           string        `json:"id"`
	Kind         MessageKind   `json:"kind"`
	Source       string        `json:"source"`
	Role         string        `json:"role,omitempty"` // optional raw role hint
	Content      Content       `json:"content"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewTextMessage creates a text ChatMessage authored by source.
func NewTextMessage(source string, content Content) ChatMessage {
	return ChatMessage{
		ID:        NewID(),
		Kind:      MessageKindText,
		Source:    source,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// Response is the single result of an agent turn.
type Response struct {
	ChatMessage   ChatMessage   `json:"chat_message"`
	InnerMessages []ChatMessage `json:"inner_messages,omitempty"`
}

// StreamEvent is one item of a streamed turn: either an incremental chunk or
// the terminal Response. Exactly one terminal event ends a stream.
type StreamEvent struct {
	Source   string    `json:"source"`
	Chunk    string    `json:"chunk,omitempty"`
	Response *Response `json:"response,omitempty"`
}

// IsFinal reports whether the event carries the terminal Response.
func (e StreamEvent) IsFinal() bool { return e.Response != nil }

// RoleMapper maps an incoming ChatMessage onto a Role from the point of view
// of the agent named self.
type RoleMapper func(msg ChatMessage, self string) (Role, error)

// MapRole is the default RoleMapper:
//   - an explicit Role hint is validated and used as-is
//   - function results map to RoleFunction
//   - messages produced by the agent itself map to RoleAssistant
//   - messages from the "system" source map to RoleSystem
//   - everything else maps to RoleUser
func MapRole(msg ChatMessage, self string) (Role, error) {
	if msg.Role != "" {
		return ParseRole(msg.Role)
	}
	switch {
	case msg.Kind == MessageKindFunctionResult:
		return RoleFunction, nil
	case self != "" && msg.Source == self:
		return RoleAssistant, nil
	case msg.Source == string(RoleSystem):
		return RoleSystem, nil
	default:
		return RoleUser, nil
	}
}

// UserRoleMapper tags every incoming message as RoleUser regardless of its
// origin. Prior assistant turns replayed through it lose their role; only use
// it where a backend expects a single-speaker transcript.
func UserRoleMapper(ChatMessage, string) (Role, error) { return RoleUser, nil }

// ToMessage converts a ChatMessage into a Message using mapper.
func ToMessage(msg ChatMessage, self string, mapper RoleMapper) (Message, error) {
	if mapper == nil {
		mapper = MapRole
	}
	role, err := mapper(msg, self)
	if err != nil {
		return Message{}, err
	}
	opts := []MessageOption{}
	if msg.Source != "" && role != RoleSystem {
		opts = append(opts, WithName(msg.Source))
	}
	if msg.FunctionCall != nil {
		opts = append(opts, WithFunctionCall(*msg.FunctionCall))
	}
	m := newMessage(role, msg.Content, opts...)
	if !msg.CreatedAt.IsZero() {
		m.CreatedAt = msg.CreatedAt
	}
	return m, nil
}

// ToMessages converts a batch. It fails on the first invalid message and
// returns no partial result.
func ToMessages(msgs []ChatMessage, self string, mapper RoleMapper) ([]Message, error) {
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		m, err := ToMessage(msg, self, mapper)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
