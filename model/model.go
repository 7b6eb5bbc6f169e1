package model

import (
	"context"
	"strings"
	"time"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/tokens"
)

// Request captures the normalized model input produced by agents.
type Request struct {
	Messages  []core.Message            `json:"messages"`
	Functions []core.FunctionDefinition `json:"functions,omitempty"`
	Stream    bool                      `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Partial
// responses carry only the incremental text; the final response carries the
// complete text.
type Response struct {
	ID           string             `json:"id"`
	Partial      bool               `json:"partial"`
	Content      string             `json:"content"`
	FunctionCall *core.FunctionCall `json:"function_call,omitempty"`
	FinishReason string             `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage        `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "placeholder", "openai", "anthropic", "langchain"
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the generation seam behind every Meepo agent. Implementations
// stream zero or more partial responses (only when Request.Stream is set)
// followed by exactly one final response, then close both channels.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// PlaceholderText is the fixed output of PlaceholderModel.
const PlaceholderText = "This is a placeholder response from MeepoAgent."

// PlaceholderOptions configures a PlaceholderModel.
type PlaceholderOptions struct {
	// Chunks is the streamed split of the response; their concatenation is the
	// final text.
	Chunks []string
	// ChunkDelay is the pause between streamed chunks.
	ChunkDelay time.Duration
	// Counter, when set, fills Response.Usage with token estimates.
	Counter *tokens.Counter
}

// PlaceholderModel returns deterministic filler text. It stands in for a real
// backend in templates and tests.
type PlaceholderModel struct {
	opts PlaceholderOptions
}

// NewPlaceholderModel constructs a PlaceholderModel streaming PlaceholderText
// word by word with a 100ms pause.
func NewPlaceholderModel(optFns ...func(o *PlaceholderOptions)) *PlaceholderModel {
	opts := PlaceholderOptions{
		Chunks:     SplitWords(PlaceholderText),
		ChunkDelay: 100 * time.Millisecond,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &PlaceholderModel{opts: opts}
}

// Text returns the complete response text.
func (m *PlaceholderModel) Text() string { return strings.Join(m.opts.Chunks, "") }

// Generate implements Model; emits the configured chunks then the final response.
func (m *PlaceholderModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, len(m.opts.Chunks)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)

		if req.Stream {
			for i, chunk := range m.opts.Chunks {
				if i > 0 && m.opts.ChunkDelay > 0 {
					select {
					case <-ctx.Done():
						errCh <- core.Cancelled(ctx)
						return
					case <-time.After(m.opts.ChunkDelay):
					}
				}
				select {
				case <-ctx.Done():
					errCh <- core.Cancelled(ctx)
					return
				case respCh <- Response{Partial: true, Content: chunk}:
				}
			}
		}

		if ctx.Err() != nil {
			errCh <- core.Cancelled(ctx)
			return
		}

		full := m.Text()
		respCh <- Response{
			ID:           core.NewID(),
			Partial:      false,
			Content:      full,
			FinishReason: "stop",
			Usage:        m.usage(req, full),
		}
	}()

	return respCh, errCh
}

func (m *PlaceholderModel) usage(req Request, completion string) *TokenUsage {
	if m.opts.Counter == nil {
		return nil
	}
	prompt, err := m.opts.Counter.CountMessages(req.Messages)
	if err != nil {
		return nil
	}
	out, err := m.opts.Counter.CountText(completion)
	if err != nil {
		return nil
	}
	return &TokenUsage{PromptTokens: prompt, CompletionTokens: out, TotalTokens: prompt + out}
}

// Info implements Model interface.
func (m *PlaceholderModel) Info() Info {
	return Info{Name: "placeholder", Provider: "placeholder"}
}

// SplitWords splits text into chunks at word boundaries, keeping the trailing
// space on every chunk but the last so the chunks concatenate back to text.
func SplitWords(text string) []string {
	words := strings.SplitAfter(text, " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Collect drains a Generate call returning the final response.
func Collect(ctx context.Context, respCh <-chan Response, errCh <-chan error) (Response, error) {
	var final *Response
	for respCh != nil {
		select {
		case <-ctx.Done():
			return Response{}, core.Cancelled(ctx)
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				rr := r
				final = &rr
			}
		}
	}
	if err, ok := <-errCh; ok && err != nil {
		return Response{}, err
	}
	if final == nil {
		return Response{}, &core.ValidationError{Field: "response", Message: "model produced no final response"}
	}
	return *final, nil
}
