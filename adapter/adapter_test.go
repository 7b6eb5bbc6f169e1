package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
)

// MockChatAgent records every forwarded call.
type MockChatAgent struct{ mock.Mock }

func (m *MockChatAgent) Name() string        { return m.Called().String(0) }
func (m *MockChatAgent) Description() string { return m.Called().String(0) }

func (m *MockChatAgent) ProducedMessageTypes() []core.MessageKind {
	return m.Called().Get(0).([]core.MessageKind)
}

func (m *MockChatAgent) OnMessages(ctx context.Context, messages []core.ChatMessage) (core.Response, error) {
	args := m.Called(ctx, messages)
	return args.Get(0).(core.Response), args.Error(1)
}

func (m *MockChatAgent) OnReset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockChatAgent) OnMessagesStream(ctx context.Context, messages []core.ChatMessage) (<-chan core.StreamEvent, <-chan error) {
	args := m.Called(ctx, messages)
	return args.Get(0).(<-chan core.StreamEvent), args.Get(1).(<-chan error)
}

func (m *MockChatAgent) SaveState(ctx context.Context) (core.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(core.State), args.Error(1)
}

func (m *MockChatAgent) LoadState(ctx context.Context, state core.State) error {
	return m.Called(ctx, state).Error(0)
}

func (m *MockChatAgent) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// bareChatAgent implements only the required operations.
type bareChatAgent struct{}

func (bareChatAgent) Name() string                             { return "bare" }
func (bareChatAgent) Description() string                      { return "" }
func (bareChatAgent) ProducedMessageTypes() []core.MessageKind { return nil }
func (bareChatAgent) OnReset(context.Context) error            { return nil }
func (bareChatAgent) OnMessages(context.Context, []core.ChatMessage) (core.Response, error) {
	return core.Response{}, nil
}

func TestChatAgentAdapter_ForwardsVerbatim(t *testing.T) {
	ctx := context.Background()
	m := &MockChatAgent{}

	msgs := []core.ChatMessage{core.NewTextMessage("user", core.Text("hi"))}
	want := core.Response{ChatMessage: core.NewTextMessage("ext", core.Text("hello"))}
	state := core.State{"k": "v"}

	m.On("OnMessages", ctx, msgs).Return(want, nil).Once()
	m.On("OnReset", ctx).Return(nil).Once()
	m.On("Close", ctx).Return(nil).Once()
	m.On("SaveState", ctx).Return(state, nil).Once()
	m.On("LoadState", ctx, state).Return(nil).Once()

	a := New(m)

	resp, err := a.OnMessages(ctx, msgs)
	require.NoError(t, err)
	assert.Equal(t, want, resp)
	require.NoError(t, a.OnReset(ctx))
	got, err := a.SaveState(ctx)
	require.NoError(t, err)
	assert.Equal(t, state, got)
	require.NoError(t, a.LoadState(ctx, state))
	require.NoError(t, a.Close(ctx))

	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "OnMessages", 1)
	m.AssertNumberOfCalls(t, "OnReset", 1)
	m.AssertNumberOfCalls(t, "Close", 1)
	assert.Same(t, m, a.Unwrap())
}

func TestChatAgentAdapter_ForwardsErrors(t *testing.T) {
	ctx := context.Background()
	m := &MockChatAgent{}
	boom := errors.New("boom")
	m.On("OnMessages", ctx, mock.Anything).Return(core.Response{}, boom)

	_, err := New(m).OnMessages(ctx, nil)
	assert.Same(t, boom, err)
}

func TestChatAgentAdapter_MetadataIsLive(t *testing.T) {
	m := &MockChatAgent{}
	m.On("Name").Return("first").Once()
	m.On("Name").Return("renamed").Once()
	m.On("Description").Return("d")
	m.On("ProducedMessageTypes").Return([]core.MessageKind{core.MessageKindText, core.MessageKindStop})

	a := New(m)
	assert.Equal(t, "first", a.Name())
	assert.Equal(t, "renamed", a.Name())
	assert.Equal(t, "d", a.Description())
	assert.Equal(t, []core.MessageKind{core.MessageKindText, core.MessageKindStop}, a.ProducedMessageTypes())
}

func TestChatAgentAdapter_StreamPassthrough(t *testing.T) {
	ctx := context.Background()
	m := &MockChatAgent{}

	events := make(chan core.StreamEvent, 3)
	errs := make(chan error)
	final := core.Response{ChatMessage: core.NewTextMessage("ext", core.Text("ab"))}
	events <- core.StreamEvent{Source: "ext", Chunk: "a"}
	events <- core.StreamEvent{Source: "ext", Chunk: "b"}
	events <- core.StreamEvent{Source: "ext", Response: &final}
	close(events)
	close(errs)

	m.On("OnMessagesStream", ctx, mock.Anything).Return((<-chan core.StreamEvent)(events), (<-chan error)(errs))

	gotEvents, gotErrs := New(m).OnMessagesStream(ctx, nil)
	chunks, resp, err := core.CollectStream(ctx, gotEvents, gotErrs)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Chunk)
	assert.Equal(t, "b", chunks[1].Chunk)
	assert.Equal(t, "ab", resp.ChatMessage.Content.String())
}

func TestChatAgentAdapter_DefaultsForMissingOperations(t *testing.T) {
	ctx := context.Background()
	a := New(bareChatAgent{})

	state, err := a.SaveState(ctx)
	require.NoError(t, err)
	assert.Empty(t, state)
	require.NoError(t, a.LoadState(ctx, core.State{"ignored": true}))
	require.NoError(t, a.Close(ctx))

	events, errs := a.OnMessagesStream(ctx, nil)
	chunks, resp, err := core.CollectStream(ctx, events, errs)
	require.NoError(t, err)
	assert.Empty(t, chunks)
	require.NotNil(t, resp)
}

func TestChatAgentAdapter_DefaultsRespectCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := New(bareChatAgent{})
	_, err := a.SaveState(ctx)
	assert.True(t, core.IsCancelled(err))
	assert.True(t, core.IsCancelled(a.LoadState(ctx, core.State{})))
}

func TestChatAgentAdapter_StrictMissingCapability(t *testing.T) {
	ctx := context.Background()
	a := New(bareChatAgent{}, func(o *Options) { o.Strict = true })

	_, err := a.SaveState(ctx)
	assert.ErrorIs(t, err, core.ErrMissingCapability)
	assert.ErrorIs(t, a.LoadState(ctx, core.State{}), core.ErrMissingCapability)

	err = a.Close(ctx)
	var mce *core.MissingCapabilityError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "Close", mce.Member)
	assert.Equal(t, "ChatAgentAdapter", mce.Wrapper)

	events, errs := a.OnMessagesStream(ctx, nil)
	_, ok := <-events
	assert.False(t, ok)
	assert.ErrorIs(t, <-errs, core.ErrMissingCapability)
}
