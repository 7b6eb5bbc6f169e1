// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including streaming + function calling). It maps
// Meepo messages and function definitions onto the SDK's message format and
// back.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name, arguments).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	// ClientOptions are passed to openai.NewClient (API key, base URL, ...).
	ClientOptions []option.RequestOption
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	client := openai.NewClient(opts.ClientOptions...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := m.buildParams(req, buildMessages(req.Messages))
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildMessages converts Meepo messages into OpenAI chat messages. An
// assistant function call is emitted as a tool call; its result (if already
// populated) or the next tool/function message answers it.
func buildMessages(msgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	var (
		messages []openai.ChatCompletionMessageParamUnion
		pending  string
	)
	for i, msg := range msgs {
		text := msg.Content.String()
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(text))
		case core.RoleUser:
			messages = append(messages, openai.UserMessage(text))
		case core.RoleAssistant:
			if msg.FunctionCall == nil {
				messages = append(messages, openai.AssistantMessage(text))
				continue
			}
			id := fmt.Sprintf("call_%d", i)
			args, _ := json.Marshal(msg.FunctionCall.Arguments)
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role: "assistant",
				ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
					ID:   id,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      msg.FunctionCall.Name,
						Arguments: string(args),
					},
				}},
			}})
			if msg.FunctionCall.HasResult() {
				messages = append(messages, openai.ToolMessage(resultText(msg.FunctionCall.Result), id))
				continue
			}
			pending = id
		case core.RoleTool, core.RoleFunction:
			if pending != "" {
				messages = append(messages, openai.ToolMessage(text, pending))
				pending = ""
				continue
			}
			if text != "" {
				messages = append(messages, openai.UserMessage(text))
			}
		}
	}
	return messages
}

func resultText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Functions) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Functions))
	for i, def := range req.Functions {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  def.JSONSchema(),
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming processes streaming responses and forwards partial / final events.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var textBuilder strings.Builder
	toolAgg := map[int64]*aggCall{}
	finished := false
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Delta.Content != "" {
				textBuilder.WriteString(ch.Delta.Content)
				out <- model.Response{Partial: true, Content: ch.Delta.Content}
			}
			aggregateToolCalls(ch, toolAgg)
			if ch.FinishReason != "" && !finished {
				finished = true
				out <- model.Response{
					ID:           ck.ID,
					Content:      textBuilder.String(),
					FunctionCall: firstCall(toolAgg),
					FinishReason: ch.FinishReason,
				}
			}
		}
	}
	if err := stream.Err(); err != nil {
		if ctx.Err() != nil {
			errCh <- core.Cancelled(ctx)
			return
		}
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}
	if !finished {
		out <- model.Response{Content: textBuilder.String(), FunctionCall: firstCall(toolAgg), FinishReason: "stop"}
	}
}

func aggregateToolCalls(ch openai.ChatCompletionChunkChoice, agg map[int64]*aggCall) {
	for _, tc := range ch.Delta.ToolCalls {
		ac, ok := agg[tc.Index]
		if !ok {
			ac = &aggCall{}
			agg[tc.Index] = ac
		}
		if tc.ID != "" {
			ac.id = tc.ID
		}
		if tc.Function.Name != "" {
			ac.name = tc.Function.Name
		}
		ac.args += tc.Function.Arguments
	}
}

// firstCall returns the lowest-index aggregated tool call as a FunctionCall.
func firstCall(agg map[int64]*aggCall) *core.FunctionCall {
	var (
		best  *aggCall
		index int64
	)
	for i, ac := range agg {
		if best == nil || i < index {
			best, index = ac, i
		}
	}
	if best == nil {
		return nil
	}
	fc := toFunctionCall(best.name, best.args)
	return &fc
}

func toFunctionCall(name, args string) core.FunctionCall {
	parsed := map[string]any{}
	if strings.TrimSpace(args) != "" {
		if err := json.Unmarshal([]byte(args), &parsed); err != nil {
			parsed = map[string]any{"_raw": args}
		}
	}
	return core.NewFunctionCall(name, parsed)
}

// handleNonStreaming processes a normal (non-streaming) completion.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if ctx.Err() != nil {
			errCh <- core.Cancelled(ctx)
			return
		}
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}
	ch0 := resp.Choices[0]
	var fc *core.FunctionCall
	if len(ch0.Message.ToolCalls) > 0 {
		call := toFunctionCall(ch0.Message.ToolCalls[0].Function.Name, ch0.Message.ToolCalls[0].Function.Arguments)
		fc = &call
	}
	out <- model.Response{
		ID:           resp.ID,
		Content:      ch0.Message.Content,
		FunctionCall: fc,
		FinishReason: ch0.FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
