package core

import (
	"fmt"

	"github.com/hupe1980/meepo/internal/util"
)

// FunctionParameter describes a single parameter of a callable function.
type FunctionParameter struct {
	Name        string `json:"param_name" yaml:"param_name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Type        string `json:"param_type" yaml:"param_type"` // JSON schema type name
	Required    bool   `json:"required" yaml:"required"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
}

// NewFunctionParameter creates a required parameter of the given type name.
func NewFunctionParameter(name, typ string, optFns ...func(p *FunctionParameter)) FunctionParameter {
	p := FunctionParameter{Name: name, Type: typ, Required: true}
	for _, fn := range optFns {
		fn(&p)
	}
	return p
}

// FunctionDefinition describes a function an agent can call. Parameter names
// are unique keys.
type FunctionDefinition struct {
	Name        string                       `json:"name" yaml:"name"`
	Description string                       `json:"description" yaml:"description"`
	Parameters  map[string]FunctionParameter `json:"parameters" yaml:"parameters"`
}

// NewFunctionDefinition creates a definition with the given parameters.
// Duplicate parameter names are rejected.
func NewFunctionDefinition(name, description string, params ...FunctionParameter) (FunctionDefinition, error) {
	def := FunctionDefinition{Name: name, Description: description, Parameters: map[string]FunctionParameter{}}
	for _, p := range params {
		if err := def.AddParameter(p); err != nil {
			return FunctionDefinition{}, err
		}
	}
	return def, nil
}

// AddParameter registers p under its name.
func (d *FunctionDefinition) AddParameter(p FunctionParameter) error {
	if p.Name == "" {
		return &ValidationError{Field: "param_name", Message: "parameter name is required"}
	}
	if d.Parameters == nil {
		d.Parameters = map[string]FunctionParameter{}
	}
	if _, exists := d.Parameters[p.Name]; exists {
		return &ValidationError{
			Field:   "parameters",
			Value:   p.Name,
			Message: fmt.Sprintf("duplicate parameter %q", p.Name),
		}
	}
	d.Parameters[p.Name] = p
	return nil
}

// JSONSchema renders the parameters as a JSON schema object suitable for
// model tool definitions.
func (d FunctionDefinition) JSONSchema() map[string]any {
	props := make(map[string]map[string]any, len(d.Parameters))
	var required []string
	for name, p := range d.Parameters {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[name] = prop
		if p.Required {
			required = append(required, name)
		}
	}
	return util.ObjectSchema(props, required)
}

// ValidateArguments checks args against the parameter definitions.
func (d FunctionDefinition) ValidateArguments(args map[string]any) error {
	if err := util.ValidateParameters(args, d.JSONSchema()); err != nil {
		if ve, ok := err.(*util.ValidationError); ok {
			return &ValidationError{Field: ve.Field, Value: ve.Value, Message: ve.Message}
		}
		return err
	}
	return nil
}

// FunctionCall is a request to invoke a named function. Result stays nil
// until the external executor returns.
type FunctionCall struct {
	Name      string         `json:"name" yaml:"name"`
	Arguments map[string]any `json:"arguments" yaml:"arguments"`
	Result    any            `json:"result,omitempty" yaml:"result,omitempty"`
}

// NewFunctionCall creates a call with an empty result.
func NewFunctionCall(name string, args map[string]any) FunctionCall {
	if args == nil {
		args = map[string]any{}
	}
	return FunctionCall{Name: name, Arguments: args}
}

// HasResult reports whether the executor has populated the result.
func (fc FunctionCall) HasResult() bool { return fc.Result != nil }

// WithResult returns a copy of the call carrying result.
func (fc FunctionCall) WithResult(result any) FunctionCall {
	fc.Result = result
	return fc
}

// ToMap returns {name, arguments, [result]}.
func (fc FunctionCall) ToMap() map[string]any {
	args := fc.Arguments
	if args == nil {
		args = map[string]any{}
	}
	m := map[string]any{
		"name":      fc.Name,
		"arguments": args,
	}
	if fc.Result != nil {
		m["result"] = fc.Result
	}
	return m
}
