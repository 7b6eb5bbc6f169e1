package agent

import (
	"context"
	"time"

	"github.com/hupe1980/meepo/core"
)

// SyncOptions configures a SyncAgent.
type SyncOptions struct {
	// Timeout bounds every call; zero means no deadline.
	Timeout time.Duration
	// Source is the author recorded on plain-text inputs.
	Source string
}

// SyncAgent offers a blocking facade over a core.Agent for callers that do
// not manage contexts. Every call runs to completion on its own context.
//
// A SyncAgent shares the wrapped agent's conversation and must not be used
// from several goroutines at once.
type SyncAgent struct {
	agent core.Agent
	opts  SyncOptions
}

// NewSync wraps a.
func NewSync(a core.Agent, optFns ...func(o *SyncOptions)) *SyncAgent {
	opts := SyncOptions{Source: string(core.RoleUser)}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SyncAgent{agent: a, opts: opts}
}

// Agent returns the wrapped agent.
func (s *SyncAgent) Agent() core.Agent { return s.agent }

// Name returns the wrapped agent's name.
func (s *SyncAgent) Name() string { return s.agent.Name() }

// Description returns the wrapped agent's description.
func (s *SyncAgent) Description() string { return s.agent.Description() }

// Type returns the wrapped agent's type, or custom when it does not declare one.
func (s *SyncAgent) Type() core.AgentType {
	if t, ok := s.agent.(interface{ Type() core.AgentType }); ok {
		return t.Type()
	}
	return core.AgentTypeCustom
}

// GenerateResponse sends text as a user message and returns the reply text.
func (s *SyncAgent) GenerateResponse(text string) (string, error) {
	return s.send(core.NewTextMessage(s.opts.Source, core.Text(text)))
}

// GenerateResponseMessage sends msg keeping its role.
func (s *SyncAgent) GenerateResponseMessage(msg core.Message) (string, error) {
	kind := core.MessageKindText
	if msg.Role == core.RoleFunction {
		kind = core.MessageKindFunctionResult
	}
	source := msg.Name
	if source == "" {
		source = string(msg.Role)
	}
	return s.send(core.ChatMessage{
		ID:           msg.ID,
		Kind:         kind,
		Source:       source,
		Role:         string(msg.Role),
		Content:      msg.Content,
		FunctionCall: msg.FunctionCall,
		CreatedAt:    msg.CreatedAt,
	})
}

func (s *SyncAgent) send(msg core.ChatMessage) (string, error) {
	ctx, cancel := s.context()
	defer cancel()

	resp, err := s.agent.OnMessages(ctx, []core.ChatMessage{msg})
	if err != nil {
		return "", err
	}
	return resp.ChatMessage.Content.String(), nil
}

// Reset resets the wrapped agent.
func (s *SyncAgent) Reset() error {
	ctx, cancel := s.context()
	defer cancel()
	return s.agent.OnReset(ctx)
}

// Close releases the wrapped agent's resources.
func (s *SyncAgent) Close() error {
	ctx, cancel := s.context()
	defer cancel()
	return core.Close(ctx, s.agent)
}

func (s *SyncAgent) context() (context.Context, context.CancelFunc) {
	if s.opts.Timeout > 0 {
		return context.WithTimeout(context.Background(), s.opts.Timeout)
	}
	return context.WithCancel(context.Background())
}
