package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversation_AddPreservesOrder(t *testing.T) {
	c := NewConversation()
	_, ok := c.LastMessage()
	assert.False(t, ok)

	c.AddSystemMessage("sys")
	c.AddUserMessage(Text("u1"))
	c.AddAssistantMessage(Text("a1"))
	c.AddToolMessage("t1")
	c.AddFunctionMessage("f1", "fn")

	msgs := c.Messages()
	require.Len(t, msgs, 5)
	assert.Equal(t, []Role{RoleSystem, RoleUser, RoleAssistant, RoleTool, RoleFunction},
		[]Role{msgs[0].Role, msgs[1].Role, msgs[2].Role, msgs[3].Role, msgs[4].Role})
	assert.Equal(t, "fn", msgs[4].Name)

	last, ok := c.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "f1", last.Content.String())
}

func TestConversation_MessagesIsCopy(t *testing.T) {
	c := NewConversation()
	c.AddUserMessage(Text("hi"))
	msgs := c.Messages()
	msgs[0].Content = Text("changed")
	assert.Equal(t, "hi", c.Messages()[0].Content.String())
}

func TestConversation_ClearKeepsIdentity(t *testing.T) {
	c := NewConversation(func(c *Conversation) { c.Metadata["topic"] = "go" })
	id := c.ID
	c.AddUserMessage(Text("a"))
	c.AddUserMessage(Text("b"))

	c.Clear()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, id, c.ID)
	assert.Equal(t, map[string]any{"topic": "go"}, c.Metadata)
}

func TestConversation_CloneIsolation(t *testing.T) {
	c := NewConversation()
	c.AddUserMessage(Text("a"))
	clone := c.Clone()
	clone.AddUserMessage(Text("b"))
	clone.Metadata["k"] = "v"

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 2, clone.Len())
	assert.NotContains(t, c.Metadata, "k")
	assert.Equal(t, c.ID, clone.ID)
}

func TestConversation_JSONRoundTrip(t *testing.T) {
	c := NewConversation()
	c.AddSystemMessage("sys")
	c.AddUserMessage(Text("hi"), WithName("alice"))

	data, err := json.Marshal(c)
	require.NoError(t, err)

	decoded := &Conversation{}
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, c.ID, decoded.ID)
	assert.Equal(t, c.ToMaps(), decoded.ToMaps())
}

func TestConversation_ExportYAML(t *testing.T) {
	c := NewConversation()
	c.AddSystemMessage("be brief")
	c.AddUserMessage(Text("hi"))

	out, err := c.ExportYAML()
	require.NoError(t, err)
	assert.Contains(t, out, "conversation_id: "+c.ID)
	assert.Contains(t, out, "role: system")
	assert.Contains(t, out, "content: be brief")
	assert.Contains(t, out, "role: user")
}
