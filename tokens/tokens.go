// Package tokens estimates the token footprint of messages using the
// cl100k_base BPE encoding.
package tokens

import (
	"encoding/json"
	"fmt"

	"github.com/tiktoken-go/tokenizer"

	"github.com/hupe1980/meepo/core"
)

// Counter estimates token counts with a tokenizer codec.
type Counter struct {
	codec tokenizer.Codec
}

// NewCounter returns a Counter backed by the cl100k_base encoding.
func NewCounter() (*Counter, error) {
	enc, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	return &Counter{codec: enc}, nil
}

// NewCounterWithCodec wraps an existing codec.
func NewCounterWithCodec(codec tokenizer.Codec) *Counter {
	return &Counter{codec: codec}
}

// CountText returns the number of tokens in s.
func (c *Counter) CountText(s string) (int, error) {
	ids, _, err := c.codec.Encode(s)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CountMessage estimates the tokens a message occupies once serialized into
// the backend mapping shape.
func (c *Counter) CountMessage(m core.Message) (int, error) {
	data, err := json.Marshal(m.ToMap())
	if err != nil {
		return 0, err
	}
	return c.CountText(string(data))
}

// CountMessages sums CountMessage over msgs.
func (c *Counter) CountMessages(msgs []core.Message) (int, error) {
	total := 0
	for _, m := range msgs {
		n, err := c.CountMessage(m)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// CountConversation estimates the tokens held by a conversation.
func (c *Counter) CountConversation(conv *core.Conversation) (int, error) {
	return c.CountMessages(conv.Messages())
}

// Prune drops the oldest non-system messages until the remainder fits into
// maxTokens. System messages are always kept. The input slice is not modified.
func (c *Counter) Prune(msgs []core.Message, maxTokens int) ([]core.Message, error) {
	sizes := make([]int, len(msgs))
	total := 0
	for i, m := range msgs {
		n, err := c.CountMessage(m)
		if err != nil {
			return nil, err
		}
		sizes[i] = n
		total += n
	}

	drop := make([]bool, len(msgs))
	for i := 0; i < len(msgs) && total > maxTokens; i++ {
		if msgs[i].Role == core.RoleSystem {
			continue
		}
		drop[i] = true
		total -= sizes[i]
	}

	out := make([]core.Message, 0, len(msgs))
	for i, m := range msgs {
		if !drop[i] {
			out = append(out, m)
		}
	}
	return out, nil
}
