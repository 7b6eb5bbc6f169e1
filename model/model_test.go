package model

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/tokens"
)

func noDelay(o *PlaceholderOptions) { o.ChunkDelay = 0 }

func TestSplitWords(t *testing.T) {
	chunks := SplitWords(PlaceholderText)
	assert.Equal(t, []string{"This ", "is ", "a ", "placeholder ", "response ", "from ", "MeepoAgent."}, chunks)
	assert.Equal(t, PlaceholderText, strings.Join(chunks, ""))
	assert.Empty(t, SplitWords(""))
}

func TestPlaceholderModel_NonStreaming(t *testing.T) {
	m := NewPlaceholderModel(noDelay)

	var got []Response
	respCh, errCh := m.Generate(context.Background(), Request{})
	for r := range respCh {
		got = append(got, r)
	}
	require.NoError(t, <-errCh)

	require.Len(t, got, 1)
	assert.False(t, got[0].Partial)
	assert.Equal(t, PlaceholderText, got[0].Content)
	assert.Equal(t, "stop", got[0].FinishReason)
	assert.Nil(t, got[0].Usage)
}

func TestPlaceholderModel_StreamingChunksPrecedeFinal(t *testing.T) {
	m := NewPlaceholderModel(noDelay)

	var (
		partial strings.Builder
		final   *Response
	)
	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	for r := range respCh {
		require.Nil(t, final, "no response may follow the final one")
		if r.Partial {
			partial.WriteString(r.Content)
			continue
		}
		rr := r
		final = &rr
	}
	require.NoError(t, <-errCh)
	require.NotNil(t, final)
	assert.Equal(t, final.Content, partial.String())
}

func TestPlaceholderModel_CustomChunks(t *testing.T) {
	m := NewPlaceholderModel(func(o *PlaceholderOptions) {
		o.Chunks = []string{"a", "b"}
		o.ChunkDelay = 0
	})
	assert.Equal(t, "ab", m.Text())

	respCh, errCh := m.Generate(context.Background(), Request{Stream: true})
	resp, err := Collect(context.Background(), respCh, errCh)
	require.NoError(t, err)
	assert.Equal(t, "ab", resp.Content)
}

func TestPlaceholderModel_Cancellation(t *testing.T) {
	m := NewPlaceholderModel(func(o *PlaceholderOptions) { o.ChunkDelay = time.Second })

	ctx, cancel := context.WithCancel(context.Background())
	respCh, errCh := m.Generate(ctx, Request{Stream: true})

	first := <-respCh
	assert.True(t, first.Partial)
	cancel()

	for r := range respCh {
		assert.True(t, r.Partial, "cancelled stream must not produce a final response")
	}
	err := <-errCh
	require.Error(t, err)
	assert.True(t, core.IsCancelled(err))
}

func TestPlaceholderModel_Usage(t *testing.T) {
	counter, err := tokens.NewCounter()
	require.NoError(t, err)

	m := NewPlaceholderModel(noDelay, func(o *PlaceholderOptions) { o.Counter = counter })
	respCh, errCh := m.Generate(context.Background(), Request{
		Messages: []core.Message{core.NewUserMessage(core.Text("hi"))},
	})
	resp, err := Collect(context.Background(), respCh, errCh)
	require.NoError(t, err)
	require.NotNil(t, resp.Usage)
	assert.Positive(t, resp.Usage.PromptTokens)
	assert.Positive(t, resp.Usage.CompletionTokens)
	assert.Equal(t, resp.Usage.PromptTokens+resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
}

func TestPlaceholderModel_Info(t *testing.T) {
	info := NewPlaceholderModel().Info()
	assert.Equal(t, "placeholder", info.Provider)
	assert.False(t, info.SupportsTools)
}
