package agent

import (
	"context"

	"github.com/hupe1980/meepo/core"
)

// BaseAgent bundles identity plus the default optional operations of the
// agent contract. Embed it in concrete agent implementations and supply
// ProducedMessageTypes, OnMessages and OnReset to satisfy core.Agent.
type BaseAgent struct {
	name        string
	description string
	agentType   core.AgentType
}

// NewBaseAgent constructs a BaseAgent from a validated configuration.
func NewBaseAgent(cfg core.AgentConfig) (BaseAgent, error) {
	if err := cfg.Validate(); err != nil {
		return BaseAgent{}, err
	}
	typ := cfg.Type
	if typ == "" {
		typ = core.AgentTypeCustom
	}
	return BaseAgent{name: cfg.Name, description: cfg.Description, agentType: typ}, nil
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// Type returns the agent type tag.
func (b *BaseAgent) Type() core.AgentType { return b.agentType }

// Config returns the identity as an AgentConfig.
func (b *BaseAgent) Config() core.AgentConfig {
	return core.AgentConfig{Name: b.name, Type: b.agentType, Description: b.description}
}

// SaveState exports nothing.
func (b *BaseAgent) SaveState(ctx context.Context) (core.State, error) {
	if ctx.Err() != nil {
		return nil, core.Cancelled(ctx)
	}
	return core.State{}, nil
}

// LoadState ignores state.
func (b *BaseAgent) LoadState(ctx context.Context, _ core.State) error {
	if ctx.Err() != nil {
		return core.Cancelled(ctx)
	}
	return nil
}

// Close holds no resources.
func (b *BaseAgent) Close(context.Context) error { return nil }
