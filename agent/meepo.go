package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/logging"
	"github.com/hupe1980/meepo/model"
	"github.com/hupe1980/meepo/tokens"
	"github.com/hupe1980/meepo/tool"
)

// State export identifiers written by SaveState.
const (
	StateType    = "MeepoAgentState"
	StateVersion = "1.0"
)

// Options configures a MeepoAgent instance.
//
// Use functional options with New to override defaults.
type Options struct {
	Description string
	Type        core.AgentType
	// SystemMessage is seeded into the conversation at construction and
	// restored by OnReset. Empty means no system message.
	SystemMessage string
	// LLMConfig is the opaque backend configuration (see model/provider).
	LLMConfig map[string]any
	// Model generates responses. Defaults to model.NewPlaceholderModel().
	Model model.Model
	// RoleMapper maps incoming chat messages to roles. Defaults to core.MapRole.
	RoleMapper core.RoleMapper
	// Tools are offered to the model; calls to them are executed in-turn.
	Tools []tool.Tool
	// MaxToolRounds bounds the generate/execute cycles per turn.
	MaxToolRounds int
	// MaxContextTokens, when positive, prunes the oldest non-system messages
	// from every model request until it fits. The conversation keeps them.
	MaxContextTokens int
	// TokenCounter estimates message sizes for MaxContextTokens. Defaults to
	// a cl100k_base counter.
	TokenCounter *tokens.Counter
	Logger       logging.Logger
}

// MeepoAgent is the reference agent. It keeps one Conversation, feeds it to
// its Model and answers every turn with exactly one text response.
//
// A turn is staged: incoming messages are mapped and validated first,
// generation runs against a copy of the conversation, and the incoming
// messages are committed only when the turn succeeds. A failed or cancelled
// turn leaves the conversation unchanged. The response itself is not appended.
//
// Calls against one instance must be serialized by the caller.
type MeepoAgent struct {
	BaseAgent
	systemMessage string
	llmConfig     map[string]any
	model         model.Model
	roleMapper    core.RoleMapper
	tools         *tool.Set
	maxToolRounds int
	maxTokens     int
	counter       *tokens.Counter
	logger        logging.Logger
	conversation  *core.Conversation
}

// New creates a MeepoAgent. The agent type defaults to assistant.
func New(name string, optFns ...func(o *Options)) (*MeepoAgent, error) {
	opts := Options{
		Type:          core.AgentTypeAssistant,
		MaxToolRounds: 5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	base, err := NewBaseAgent(core.AgentConfig{Name: name, Type: opts.Type, Description: opts.Description})
	if err != nil {
		return nil, err
	}

	tools, err := tool.NewSet(opts.Tools...)
	if err != nil {
		return nil, err
	}

	m := opts.Model
	if m == nil {
		m = model.NewPlaceholderModel()
	}
	mapper := opts.RoleMapper
	if mapper == nil {
		mapper = core.MapRole
	}
	if opts.MaxToolRounds < 1 {
		opts.MaxToolRounds = 1
	}
	counter := opts.TokenCounter
	if opts.MaxContextTokens > 0 && counter == nil {
		counter, err = tokens.NewCounter()
		if err != nil {
			return nil, err
		}
	}

	a := &MeepoAgent{
		BaseAgent:     base,
		systemMessage: opts.SystemMessage,
		llmConfig:     copyConfig(opts.LLMConfig),
		model:         m,
		roleMapper:    mapper,
		tools:         tools,
		maxToolRounds: opts.MaxToolRounds,
		maxTokens:     opts.MaxContextTokens,
		counter:       counter,
		logger:        logging.OrNoOp(opts.Logger),
		conversation:  core.NewConversation(),
	}
	a.seed()
	return a, nil
}

func (a *MeepoAgent) seed() {
	if a.systemMessage != "" {
		a.conversation.AddSystemMessage(a.systemMessage)
	}
}

// SystemMessage returns the configured system message.
func (a *MeepoAgent) SystemMessage() string { return a.systemMessage }

// LLMConfig returns a copy of the backend configuration.
func (a *MeepoAgent) LLMConfig() map[string]any { return copyConfig(a.llmConfig) }

// Model returns the generation backend.
func (a *MeepoAgent) Model() model.Model { return a.model }

// Conversation returns a snapshot of the running conversation.
func (a *MeepoAgent) Conversation() *core.Conversation { return a.conversation.Clone() }

// ProducedMessageTypes implements core.Agent.
func (a *MeepoAgent) ProducedMessageTypes() []core.MessageKind {
	return []core.MessageKind{core.MessageKindText}
}

// OnMessages implements core.Agent.
func (a *MeepoAgent) OnMessages(ctx context.Context, messages []core.ChatMessage) (core.Response, error) {
	start := time.Now()
	a.logger.Debug("agent.on_messages.start", "agent", a.Name(), "message_count", len(messages))

	inputs, staged, err := a.stage(ctx, messages)
	if err != nil {
		return core.Response{}, a.fail("agent.on_messages", err)
	}

	content, inner, err := a.generate(ctx, staged, nil)
	if err != nil {
		return core.Response{}, a.fail("agent.on_messages", err)
	}
	if ctx.Err() != nil {
		return core.Response{}, a.fail("agent.on_messages", core.Cancelled(ctx))
	}

	a.commit(inputs)
	a.logger.Info("agent.on_messages.complete", "agent", a.Name(), "duration", time.Since(start))

	return core.Response{ChatMessage: a.reply(content), InnerMessages: inner}, nil
}

// OnMessagesStream implements core.Streamer. Chunk events precede exactly one
// terminal event; the chunk contents concatenate to the terminal content. The
// turn is committed by the time the terminal event is received.
func (a *MeepoAgent) OnMessagesStream(ctx context.Context, messages []core.ChatMessage) (<-chan core.StreamEvent, <-chan error) {
	out := make(chan core.StreamEvent, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		a.logger.Debug("agent.on_messages_stream.start", "agent", a.Name(), "message_count", len(messages))

		inputs, staged, err := a.stage(ctx, messages)
		if err != nil {
			errCh <- a.fail("agent.on_messages_stream", err)
			return
		}

		var streamed strings.Builder
		emit := func(chunk string) error {
			select {
			case <-ctx.Done():
				return core.Cancelled(ctx)
			case out <- core.StreamEvent{Source: a.Name(), Chunk: chunk}:
				streamed.WriteString(chunk)
				return nil
			}
		}

		_, inner, err := a.generate(ctx, staged, emit)
		if err != nil {
			errCh <- a.fail("agent.on_messages_stream", err)
			return
		}

		resp := core.Response{ChatMessage: a.reply(streamed.String()), InnerMessages: inner}

		// The turn is visible before the terminal event can be received.
		previous := a.conversation.Clone()
		a.commit(inputs)
		select {
		case <-ctx.Done():
			a.conversation = previous
			errCh <- a.fail("agent.on_messages_stream", core.Cancelled(ctx))
			return
		case out <- core.StreamEvent{Source: a.Name(), Response: &resp}:
		}

		a.logger.Info("agent.on_messages_stream.complete", "agent", a.Name())
	}()

	return out, errCh
}

// OnReset implements core.Agent: clears the conversation and re-seeds the
// system message.
func (a *MeepoAgent) OnReset(ctx context.Context) error {
	if ctx.Err() != nil {
		return core.Cancelled(ctx)
	}
	a.conversation.Clear()
	a.seed()
	a.logger.Debug("agent.on_reset", "agent", a.Name())
	return nil
}

// SaveState exports the conversation.
func (a *MeepoAgent) SaveState(ctx context.Context) (core.State, error) {
	if ctx.Err() != nil {
		return nil, core.Cancelled(ctx)
	}
	data, err := json.Marshal(a.conversation)
	if err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	var conv map[string]any
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return core.State{
		"type":         StateType,
		"version":      StateVersion,
		"conversation": conv,
	}, nil
}

// LoadState replaces the conversation with the exported one. The current
// conversation is kept when state is malformed.
func (a *MeepoAgent) LoadState(ctx context.Context, state core.State) error {
	if ctx.Err() != nil {
		return core.Cancelled(ctx)
	}
	if typ, ok := state["type"]; ok && typ != StateType {
		return &core.ValidationError{Field: "type", Value: typ, Message: fmt.Sprintf("expected %s", StateType)}
	}
	raw, ok := state["conversation"]
	if !ok {
		return &core.ValidationError{Field: "conversation", Message: "state holds no conversation"}
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return &core.ValidationError{Field: "conversation", Value: raw, Message: err.Error()}
	}
	conv := core.NewConversation()
	if err := json.Unmarshal(data, conv); err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return &core.ValidationError{Field: "conversation", Message: err.Error()}
	}
	a.conversation = conv
	return nil
}

// Close releases the model when it holds resources.
func (a *MeepoAgent) Close(ctx context.Context) error {
	if c, ok := a.model.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// stage maps all inputs and appends them to a copy of the conversation. Any
// invalid message fails the whole batch.
func (a *MeepoAgent) stage(ctx context.Context, messages []core.ChatMessage) ([]core.Message, *core.Conversation, error) {
	if ctx.Err() != nil {
		return nil, nil, core.Cancelled(ctx)
	}
	inputs, err := core.ToMessages(messages, a.Name(), a.roleMapper)
	if err != nil {
		return nil, nil, err
	}
	staged := a.conversation.Clone()
	for _, m := range inputs {
		staged.AddMessage(m)
	}
	return inputs, staged, nil
}

func (a *MeepoAgent) commit(inputs []core.Message) {
	for _, m := range inputs {
		a.conversation.AddMessage(m)
	}
}

// generate runs the model against staged, executing tool calls until the
// model answers with text or MaxToolRounds is reached. With a non-nil emit
// every partial is forwarded; a round that produced text without partials is
// forwarded as one chunk so that chunks always add up to the answer. The
// answer is the text of every round, so a streamed and a collected turn
// return the same content.
func (a *MeepoAgent) generate(
	ctx context.Context,
	staged *core.Conversation,
	emit func(string) error,
) (string, []core.ChatMessage, error) {
	var (
		inner  []core.ChatMessage
		answer strings.Builder
	)

	for round := 0; ; round++ {
		msgs, err := a.window(staged.Messages())
		if err != nil {
			return "", nil, err
		}

		start := time.Now()
		req := model.Request{
			Messages:  msgs,
			Functions: a.tools.Definitions(),
			Stream:    emit != nil,
		}

		final, streamed, err := a.drain(ctx, req, emit)
		a.logModelCall(final, time.Since(start), err)
		if err != nil {
			return "", nil, err
		}
		if emit != nil && !streamed && final.Content != "" {
			if err := emit(final.Content); err != nil {
				return "", nil, err
			}
		}
		answer.WriteString(final.Content)

		fc := final.FunctionCall
		if fc == nil || round+1 >= a.maxToolRounds {
			return answer.String(), inner, nil
		}
		if _, ok := a.tools.Get(fc.Name); !ok {
			return answer.String(), inner, nil
		}

		done, err := a.tools.Invoke(ctx, *fc)
		if err != nil {
			if core.IsCancelled(err) {
				return "", nil, err
			}
			a.logger.Warn("agent.tool.failed", "agent", a.Name(), "tool", fc.Name, "error", err.Error())
			done = fc.WithResult(map[string]any{"error": err.Error()})
		}

		inner = append(inner,
			core.ChatMessage{ID: core.NewID(), Kind: core.MessageKindFunctionCall, Source: a.Name(), FunctionCall: fc, CreatedAt: time.Now()},
			core.ChatMessage{ID: core.NewID(), Kind: core.MessageKindFunctionResult, Source: a.Name(), FunctionCall: &done, CreatedAt: time.Now()},
		)
		staged.AddAssistantMessage(core.Text(final.Content), core.WithFunctionCall(done))
	}
}

// window applies the context token budget to a model request.
func (a *MeepoAgent) window(msgs []core.Message) ([]core.Message, error) {
	if a.maxTokens <= 0 {
		return msgs, nil
	}
	pruned, err := a.counter.Prune(msgs, a.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("prune context: %w", err)
	}
	if dropped := len(msgs) - len(pruned); dropped > 0 {
		a.logger.Debug("agent.context.pruned", "agent", a.Name(), "dropped", dropped, "max_tokens", a.maxTokens)
	}
	return pruned, nil
}

// drain consumes one Generate call, forwarding partials to emit.
func (a *MeepoAgent) drain(ctx context.Context, req model.Request, emit func(string) error) (model.Response, bool, error) {
	respCh, errCh := a.model.Generate(ctx, req)

	var (
		final    *model.Response
		streamed bool
	)
	for r := range respCh {
		if r.Partial {
			if emit == nil || r.Content == "" {
				continue
			}
			if err := emit(r.Content); err != nil {
				go discard(respCh)
				return model.Response{}, streamed, err
			}
			streamed = true
			continue
		}
		rr := r
		final = &rr
	}
	if err, ok := <-errCh; ok && err != nil {
		return model.Response{}, streamed, err
	}
	if ctx.Err() != nil {
		return model.Response{}, streamed, core.Cancelled(ctx)
	}
	if final == nil {
		return model.Response{}, streamed, fmt.Errorf("model %s produced no final response", a.model.Info().Name)
	}
	return *final, streamed, nil
}

func discard(ch <-chan model.Response) {
	for range ch {
	}
}

func (a *MeepoAgent) logModelCall(resp model.Response, dur time.Duration, err error) {
	info := a.model.Info()
	tokens := 0
	if resp.Usage != nil {
		tokens = resp.Usage.TotalTokens
	}
	if ml, ok := a.logger.(*logging.MeepoLogger); ok {
		ml.LogModelCall(info.Name, tokens, dur, err)
		return
	}
	a.logger.Debug("model.call", "agent", a.Name(), "model", info.Name, "token_count", tokens, "duration", dur)
}

func (a *MeepoAgent) reply(content string) core.ChatMessage {
	return core.NewTextMessage(a.Name(), core.Text(content))
}

func (a *MeepoAgent) fail(op string, err error) error {
	if core.IsCancelled(err) {
		a.logger.Warn(op+".cancelled", "agent", a.Name(), "error", err.Error())
		return err
	}
	a.logger.Error(op+".failed", "agent", a.Name(), "error", err.Error())
	return err
}

func copyConfig(cfg map[string]any) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
