// Package langchain adapts any LangChainGo llms.Model to model.Model, making
// every backend supported by LangChainGo usable behind a Meepo agent.
package langchain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/model"
)

// Options configure generation parameters forwarded as llms.CallOption.
type Options struct {
	// Name is reported by Info; when ModelName is empty the backend default applies.
	Name        string
	ModelName   string
	Temperature float64
	MaxTokens   int
}

// Model wraps an llms.Model.
type Model struct {
	llm  llms.Model
	opts Options
}

// NewModel wraps llm.
func NewModel(llm llms.Model, optFns ...func(o *Options)) *Model {
	opts := Options{
		Name:        "langchain",
		Temperature: 0.7,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{llm: llm, opts: opts}
}

// Generate implements model.Model. Streaming uses llms.WithStreamingFunc; each
// chunk becomes a partial response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		callOpts := m.callOptions(req)
		if req.Stream {
			callOpts = append(callOpts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case out <- model.Response{Partial: true, Content: string(chunk)}:
					return nil
				}
			}))
		}

		resp, err := m.llm.GenerateContent(ctx, buildMessages(req.Messages), callOpts...)
		if err != nil {
			if ctx.Err() != nil {
				errCh <- core.Cancelled(ctx)
				return
			}
			errCh <- fmt.Errorf("langchain generate: %w", err)
			return
		}
		if len(resp.Choices) == 0 {
			errCh <- fmt.Errorf("no choices returned")
			return
		}

		choice := resp.Choices[0]
		var fc *core.FunctionCall
		if len(choice.ToolCalls) > 0 && choice.ToolCalls[0].FunctionCall != nil {
			call := toFunctionCall(choice.ToolCalls[0].FunctionCall.Name, choice.ToolCalls[0].FunctionCall.Arguments)
			fc = &call
		}
		finish := choice.StopReason
		if finish == "" {
			finish = "stop"
		}
		out <- model.Response{
			ID:           core.NewID(),
			Content:      choice.Content,
			FunctionCall: fc,
			FinishReason: finish,
		}
	}()

	return out, errCh
}

func (m *Model) callOptions(req model.Request) []llms.CallOption {
	opts := []llms.CallOption{llms.WithTemperature(m.opts.Temperature)}
	if m.opts.ModelName != "" {
		opts = append(opts, llms.WithModel(m.opts.ModelName))
	}
	if m.opts.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(m.opts.MaxTokens))
	}
	if len(req.Functions) > 0 {
		tools := make([]llms.Tool, len(req.Functions))
		for i, def := range req.Functions {
			tools[i] = llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        def.Name,
					Description: def.Description,
					Parameters:  def.JSONSchema(),
				},
			}
		}
		opts = append(opts, llms.WithTools(tools))
	}
	return opts
}

// buildMessages maps Meepo roles onto LangChainGo chat message types.
func buildMessages(msgs []core.Message) []llms.MessageContent {
	var (
		out     []llms.MessageContent
		pending *core.FunctionCall
		pendID  string
	)
	for i, msg := range msgs {
		text := msg.Content.String()
		switch msg.Role {
		case core.RoleSystem:
			out = append(out, llms.TextParts(llms.ChatMessageTypeSystem, text))
		case core.RoleUser:
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, text))
		case core.RoleAssistant:
			if msg.FunctionCall == nil {
				out = append(out, llms.TextParts(llms.ChatMessageTypeAI, text))
				continue
			}
			id := fmt.Sprintf("call_%d", i)
			args, _ := json.Marshal(msg.FunctionCall.Arguments)
			out = append(out, llms.MessageContent{
				Role: llms.ChatMessageTypeAI,
				Parts: []llms.ContentPart{llms.ToolCall{
					ID:           id,
					Type:         "function",
					FunctionCall: &llms.FunctionCall{Name: msg.FunctionCall.Name, Arguments: string(args)},
				}},
			})
			if msg.FunctionCall.HasResult() {
				out = append(out, toolResponse(id, msg.FunctionCall.Name, resultText(msg.FunctionCall.Result)))
				continue
			}
			pending, pendID = msg.FunctionCall, id
		case core.RoleTool, core.RoleFunction:
			if pending != nil {
				out = append(out, toolResponse(pendID, pending.Name, text))
				pending, pendID = nil, ""
				continue
			}
			out = append(out, llms.TextParts(llms.ChatMessageTypeHuman, text))
		}
	}
	return out
}

func toolResponse(id, name, content string) llms.MessageContent {
	return llms.MessageContent{
		Role:  llms.ChatMessageTypeTool,
		Parts: []llms.ContentPart{llms.ToolCallResponse{ToolCallID: id, Name: name, Content: content}},
	}
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

func toFunctionCall(name, args string) core.FunctionCall {
	parsed := map[string]any{}
	if strings.TrimSpace(args) != "" {
		if err := json.Unmarshal([]byte(args), &parsed); err != nil {
			parsed = map[string]any{"_raw": args}
		}
	}
	return core.NewFunctionCall(name, parsed)
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	name := m.opts.Name
	if m.opts.ModelName != "" {
		name = m.opts.ModelName
	}
	return model.Info{Name: name, Provider: "langchain", SupportsTools: true}
}
