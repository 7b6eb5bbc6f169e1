package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
)

func TestCounter_CountText(t *testing.T) {
	c, err := NewCounter()
	require.NoError(t, err)

	n, err := c.CountText("hello world")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.CountText("")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCounter_CountMessages(t *testing.T) {
	c, err := NewCounter()
	require.NoError(t, err)

	sys := core.NewSystemMessage("You are a helpful AI assistant.")
	user := core.NewUserMessage(core.Text("hi"))

	a, err := c.CountMessage(sys)
	require.NoError(t, err)
	b, err := c.CountMessage(user)
	require.NoError(t, err)
	assert.Positive(t, a)
	assert.Positive(t, b)

	total, err := c.CountMessages([]core.Message{sys, user})
	require.NoError(t, err)
	assert.Equal(t, a+b, total)

	conv := core.NewConversation()
	conv.AddMessage(sys)
	conv.AddMessage(user)
	fromConv, err := c.CountConversation(conv)
	require.NoError(t, err)
	assert.Equal(t, total, fromConv)
}

func TestCounter_PruneKeepsSystem(t *testing.T) {
	c, err := NewCounter()
	require.NoError(t, err)

	msgs := []core.Message{
		core.NewSystemMessage("system prompt"),
		core.NewUserMessage(core.Text("first question that is fairly long")),
		core.NewAssistantMessage(core.Text("first answer")),
		core.NewUserMessage(core.Text("second")),
	}

	pruned, err := c.Prune(msgs, 1)
	require.NoError(t, err)
	require.Len(t, pruned, 1)
	assert.Equal(t, core.RoleSystem, pruned[0].Role)

	all, err := c.Prune(msgs, 1<<20)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Len(t, msgs, 4)
}
