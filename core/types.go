package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role is the speaker category of a Message. The set is closed: any external
// string must map to exactly one of the constants below.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleFunction  Role = "function"
)

var roles = []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleFunction}

// Roles returns all valid roles in declaration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles)
	return out
}

// ParseRole maps a raw string onto a Role. Unmapped strings are a validation
// error; there is no silent default.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", &ValidationError{
			Field:   "role",
			Value:   s,
			Message: fmt.Sprintf("Invalid role: %s", s),
			Err:     ErrInvalidRole,
		}
	}
	return r, nil
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	for _, v := range roles {
		if r == v {
			return true
		}
	}
	return false
}

// String returns the wire value of the role.
func (r Role) String() string { return string(r) }

// UnmarshalJSON validates the decoded role string.
func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalYAML validates the decoded role string.
func (r *Role) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// AgentType categorizes an agent implementation.
type AgentType string

const (
	AgentTypeAssistant     AgentType = "assistant"
	AgentTypeCodeExecutor  AgentType = "code_executor"
	AgentTypeUserProxy     AgentType = "user_proxy"
	AgentTypeSocietyOfMind AgentType = "society_of_mind"
	AgentTypeCustom        AgentType = "custom"
)

var agentTypes = []AgentType{
	AgentTypeAssistant,
	AgentTypeCodeExecutor,
	AgentTypeUserProxy,
	AgentTypeSocietyOfMind,
	AgentTypeCustom,
}

// ParseAgentType maps a raw string onto an AgentType. The empty string yields
// AgentTypeCustom.
func ParseAgentType(s string) (AgentType, error) {
	if s == "" {
		return AgentTypeCustom, nil
	}
	for _, t := range agentTypes {
		if AgentType(s) == t {
			return t, nil
		}
	}
	return "", &ValidationError{
		Field:   "agent_type",
		Value:   s,
		Message: fmt.Sprintf("Invalid agent type: %s", s),
		Err:     ErrInvalidAgentType,
	}
}

// String returns the wire value of the agent type.
func (t AgentType) String() string { return string(t) }

// AgentConfig is the base configuration record for agents. It carries no behavior.
type AgentConfig struct {
	Name        string    `json:"name" yaml:"name"`
	Type        AgentType `json:"agent_type" yaml:"agent_type"`
	Description string    `json:"description" yaml:"description"`
}

// NewAgentConfig builds an AgentConfig with Type defaulting to AgentTypeCustom.
func NewAgentConfig(name string, optFns ...func(c *AgentConfig)) AgentConfig {
	c := AgentConfig{Name: name, Type: AgentTypeCustom}
	for _, fn := range optFns {
		fn(&c)
	}
	return c
}

// Validate checks the required fields.
func (c AgentConfig) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Value: c.Name, Message: "name is required"}
	}
	if _, err := ParseAgentType(string(c.Type)); err != nil {
		return err
	}
	return nil
}

// NewID generates a new unique identifier for messages and conversations.
func NewID() string { return uuid.NewString() }
