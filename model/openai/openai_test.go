package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/model"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewModel(func(o *Options) {
		o.Model = "gpt-4o-mini"
		o.ClientOptions = []option.RequestOption{
			option.WithAPIKey("test"),
			option.WithBaseURL(srv.URL + "/"),
			option.WithMaxRetries(0),
		}
	})
}

func TestBuildMessages(t *testing.T) {
	call := core.NewFunctionCall("lookup", map[string]any{"q": "go"})
	msgs := []core.Message{
		core.NewSystemMessage("sys"),
		core.NewUserMessage(core.Text("hi")),
		core.NewAssistantMessage(core.Text(""), core.WithFunctionCall(call)),
		core.NewFunctionMessage("result", "lookup"),
		core.NewAssistantMessage(core.Text("done")),
	}

	out := buildMessages(msgs)
	require.Len(t, out, 5)
	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)
	require.NotNil(t, out[2].OfAssistant)
	require.Len(t, out[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "lookup", out[2].OfAssistant.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"q":"go"}`, out[2].OfAssistant.ToolCalls[0].Function.Arguments)
	require.NotNil(t, out[3].OfTool)
	assert.Equal(t, out[2].OfAssistant.ToolCalls[0].ID, out[3].OfTool.ToolCallID)
	assert.NotNil(t, out[4].OfAssistant)
}

func TestBuildMessages_ResultAttached(t *testing.T) {
	call := core.NewFunctionCall("lookup", nil).WithResult(map[string]any{"n": 1})
	out := buildMessages([]core.Message{core.NewAssistantMessage(core.Text(""), core.WithFunctionCall(call))})
	require.Len(t, out, 2)
	require.NotNil(t, out[1].OfTool)
}

func TestModel_GenerateNonStreaming(t *testing.T) {
	var body map[string]any
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Messages: []core.Message{core.NewUserMessage(core.Text("hi"))},
	})
	resp, err := model.Collect(context.Background(), respCh, errCh)
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
	assert.Equal(t, "gpt-4o-mini", body["model"])
}

func TestModel_GenerateStreaming(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{"Hel", "lo"} {
			fmt.Fprintf(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q},\"finish_reason\":null}]}\n\n", chunk)
		}
		fmt.Fprint(w, "data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"m\",\"choices\":[{\"index\":0,\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{
		Messages: []core.Message{core.NewUserMessage(core.Text("hi"))},
		Stream:   true,
	})

	var (
		partials []string
		final    *model.Response
	)
	for r := range respCh {
		if r.Partial {
			partials = append(partials, r.Content)
			continue
		}
		rr := r
		final = &rr
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"Hel", "lo"}, partials)
	require.NotNil(t, final)
	assert.Equal(t, "Hello", final.Content)
	assert.Equal(t, "stop", final.FinishReason)
}

func TestModel_APIError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"bad","type":"invalid_request_error"}}`)
	})

	respCh, errCh := m.Generate(context.Background(), model.Request{})
	_, err := model.Collect(context.Background(), respCh, errCh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai api error")
}

func TestModel_Info(t *testing.T) {
	info := NewModel(func(o *Options) { o.Model = "gpt-4" }).Info()
	assert.Equal(t, "gpt-4", info.Name)
	assert.Equal(t, "openai", info.Provider)
	assert.True(t, info.SupportsTools)
}
