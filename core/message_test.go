package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_ValidatesRawRole(t *testing.T) {
	for _, r := range Roles() {
		m, err := NewMessage(string(r), Text("x"))
		require.NoError(t, err)
		assert.Equal(t, r, m.Role)
		assert.NotEmpty(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	}

	_, err := NewMessage("narrator", Text("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRole))
	assert.Contains(t, err.Error(), "Invalid role: narrator")
}

func TestMessage_UniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		m := NewUserMessage(Text("hi"))
		require.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestMessage_ToMap(t *testing.T) {
	assert.Equal(t,
		map[string]any{"role": "system", "content": "hello"},
		NewSystemMessage("hello").ToMap(),
	)

	named := NewUserMessage(Text("hi"), WithName("alice")).ToMap()
	assert.Equal(t, "alice", named["name"])
	assert.NotContains(t, named, "function_call")

	fc := NewFunctionCall("lookup", map[string]any{"q": "go"})
	withCall := NewAssistantMessage(Text(""), WithFunctionCall(fc)).ToMap()
	assert.Equal(t, map[string]any{
		"role":    "assistant",
		"content": "",
		"function_call": map[string]any{
			"name":      "lookup",
			"arguments": map[string]any{"q": "go"},
		},
	}, withCall)

	fn := NewFunctionMessage("42", "answer").ToMap()
	assert.Equal(t, map[string]any{"role": "function", "content": "42", "name": "answer"}, fn)

	tool := NewToolMessage("done").ToMap()
	assert.Equal(t, "tool", tool["role"])
}

func TestMessage_JSONRoundTrip(t *testing.T) {
	orig := NewAssistantMessage(Parts(TextItem("a"), DataItem{"k": "v"}), WithName("bot"))
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, orig.ID, decoded.ID)
	assert.Equal(t, orig.Role, decoded.Role)
	assert.Equal(t, orig.Name, decoded.Name)
	assert.Equal(t, orig.Content.String(), decoded.Content.String())
	assert.True(t, orig.CreatedAt.Equal(decoded.CreatedAt))
}

func TestMessage_JSONRejectsBadRole(t *testing.T) {
	var m Message
	err := json.Unmarshal([]byte(`{"role":"robot","content":"x"}`), &m)
	assert.True(t, errors.Is(err, ErrInvalidRole))

	err = json.Unmarshal([]byte(`{"content":"x"}`), &m)
	assert.True(t, errors.Is(err, ErrInvalidRole))
}
