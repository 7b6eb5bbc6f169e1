package agent

import (
	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/model/provider"
)

// Default prompts and descriptions used by the factory constructors.
const (
	DefaultAssistantPrompt         = "You are a helpful AI assistant."
	DefaultAssistantDescription    = "A helpful AI assistant"
	DefaultCodeExecutorPrompt      = "You are a code execution agent capable of running code and returning the results."
	DefaultCodeExecutorDescription = "An agent that can execute code"
	DefaultUserProxyDescription    = "A user proxy agent"
	DefaultLLM                     = "gpt-4"
)

// NewAssistant creates an assistant agent. An empty SystemMessage falls back
// to DefaultAssistantPrompt and LLMConfig always carries a model entry.
func NewAssistant(name string, optFns ...func(o *Options)) (*MeepoAgent, error) {
	return New(name, withDefaults(core.AgentTypeAssistant, DefaultAssistantDescription, DefaultAssistantPrompt, optFns)...)
}

// NewCodeExecutor creates a code executor agent.
func NewCodeExecutor(name string, optFns ...func(o *Options)) (*MeepoAgent, error) {
	return New(name, withDefaults(core.AgentTypeCodeExecutor, DefaultCodeExecutorDescription, DefaultCodeExecutorPrompt, optFns)...)
}

// NewUserProxy creates a user proxy agent. It has no default system message.
func NewUserProxy(name string, optFns ...func(o *Options)) (*MeepoAgent, error) {
	fns := append([]func(o *Options){func(o *Options) {
		o.Type = core.AgentTypeUserProxy
		o.Description = DefaultUserProxyDescription
	}}, optFns...)
	return New(name, fns...)
}

func withDefaults(typ core.AgentType, description, prompt string, optFns []func(o *Options)) []func(o *Options) {
	fns := make([]func(o *Options), 0, len(optFns)+2)
	fns = append(fns, func(o *Options) {
		o.Type = typ
		o.Description = description
	})
	fns = append(fns, optFns...)
	fns = append(fns, func(o *Options) {
		o.Type = typ
		if o.SystemMessage == "" {
			o.SystemMessage = prompt
		}
		cfg := copyConfig(o.LLMConfig)
		if _, ok := cfg[provider.KeyModel]; !ok {
			cfg[provider.KeyModel] = DefaultLLM
		}
		o.LLMConfig = cfg
	})
	return fns
}

// Spec is a declarative agent description, as loaded from configuration.
type Spec struct {
	core.AgentConfig
	SystemMessage    string
	LLMConfig        map[string]any
	MaxContextTokens int
}

// FromConfig builds an agent from spec, dispatching on its type. Unless
// optFns set a Model, the model is selected from spec.LLMConfig through
// provider.New. society_of_mind agents are not supported.
func FromConfig(spec Spec, optFns ...func(o *Options)) (*MeepoAgent, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	fns := []func(o *Options){func(o *Options) {
		if spec.Description != "" {
			o.Description = spec.Description
		}
		o.SystemMessage = spec.SystemMessage
		o.LLMConfig = spec.LLMConfig
		o.MaxContextTokens = spec.MaxContextTokens
	}}
	fns = append(fns, optFns...)

	probe := Options{}
	for _, fn := range fns {
		fn(&probe)
	}
	if probe.Model == nil {
		m, err := provider.New(spec.LLMConfig)
		if err != nil {
			return nil, err
		}
		fns = append(fns, func(o *Options) {
			if o.Model == nil {
				o.Model = m
			}
		})
	}

	switch spec.Type {
	case core.AgentTypeAssistant:
		return NewAssistant(spec.Name, fns...)
	case core.AgentTypeCodeExecutor:
		return NewCodeExecutor(spec.Name, fns...)
	case core.AgentTypeUserProxy:
		return NewUserProxy(spec.Name, fns...)
	case core.AgentTypeCustom, "":
		return New(spec.Name, append(fns, func(o *Options) { o.Type = core.AgentTypeCustom })...)
	default:
		return nil, &core.UnsupportedTypeError{Kind: "agent", Type: string(spec.Type), Supported: SupportedTypes()}
	}
}

// SupportedTypes lists the agent types FromConfig can build.
func SupportedTypes() []string {
	return []string{
		string(core.AgentTypeAssistant),
		string(core.AgentTypeCodeExecutor),
		string(core.AgentTypeUserProxy),
		string(core.AgentTypeCustom),
	}
}
