// Package tool implements the function calling subsystem: Go functions are
// exposed as core.FunctionDefinition values and executed against
// core.FunctionCall requests, populating the call's result.
package tool

import (
	"context"
	"fmt"
	"sort"

	"github.com/hupe1980/meepo/core"
)

// Tool is a callable function an agent can offer to its model.
type Tool interface {
	// Definition describes the function to the model.
	Definition() core.FunctionDefinition

	// Invoke validates fc against the definition, executes it and returns fc
	// with Result populated.
	Invoke(ctx context.Context, fc core.FunctionCall) (core.FunctionCall, error)
}

// Error codes reported by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "NOT_FOUND"
)

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Err     error  `json:"-"`                 // Underlying cause
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ToolError) Unwrap() error { return e.Err }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Set is a name-indexed collection of tools.
type Set struct {
	tools map[string]Tool
}

// NewSet builds a Set. Duplicate names are rejected.
func NewSet(tools ...Tool) (*Set, error) {
	s := &Set{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if err := s.Add(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add registers t.
func (s *Set) Add(t Tool) error {
	name := t.Definition().Name
	if _, exists := s.tools[name]; exists {
		return &core.ValidationError{Field: "tool", Value: name, Message: "duplicate tool name"}
	}
	s.tools[name] = t
	return nil
}

// Len returns the number of tools.
func (s *Set) Len() int { return len(s.tools) }

// Get looks a tool up by name.
func (s *Set) Get(name string) (Tool, bool) {
	t, ok := s.tools[name]
	return t, ok
}

// Definitions returns the function definitions sorted by name.
func (s *Set) Definitions() []core.FunctionDefinition {
	defs := make([]core.FunctionDefinition, 0, len(s.tools))
	for _, t := range s.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Invoke dispatches fc to the tool of the same name.
func (s *Set) Invoke(ctx context.Context, fc core.FunctionCall) (core.FunctionCall, error) {
	t, ok := s.tools[fc.Name]
	if !ok {
		return fc, &ToolError{
			Tool:    fc.Name,
			Message: "no such tool",
			Code:    CodeNotFound,
			Err:     core.ErrNotFound,
		}
	}
	return t.Invoke(ctx, fc)
}
