package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
)

type notAnAgent struct{}

func TestAdapt_ChatAgent(t *testing.T) {
	a, err := Adapt(bareChatAgent{})
	require.NoError(t, err)

	adapted, ok := a.(*ChatAgentAdapter)
	require.True(t, ok)
	assert.Equal(t, bareChatAgent{}, adapted.Unwrap())
	assert.Equal(t, "bare", a.Name())
}

func TestAdapt_Unsupported(t *testing.T) {
	for _, v := range []any{notAnAgent{}, 42, nil} {
		_, err := Adapt(v)
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrUnsupportedType)

		var ute *core.UnsupportedTypeError
		require.ErrorAs(t, err, &ute)
		assert.Equal(t, []string{ChatAgentShape}, ute.Supported)
	}

	_, err := Adapt(notAnAgent{})
	assert.Contains(t, err.Error(), "adapter.notAnAgent")
	assert.Contains(t, err.Error(), ChatAgentShape)
}

func TestRegistry_OrderAndRegister(t *testing.T) {
	r := NewRegistry(ChatAgentEntry())

	custom := Entry{
		Name:  "custom",
		Match: func(v any) bool {
			_, ok := v.(notAnAgent)
			return ok
		},
		New: func(any) (core.Agent, error) {
			return New(bareChatAgent{}), nil
		},
	}
	require.NoError(t, r.Register(custom))
	assert.Equal(t, []string{ChatAgentShape, "custom"}, r.Supported())

	a, err := r.Adapt(notAnAgent{})
	require.NoError(t, err)
	assert.Equal(t, "bare", a.Name())

	assert.ErrorIs(t, r.Register(custom), core.ErrValidation)
	assert.ErrorIs(t, r.Register(Entry{Name: "x"}), core.ErrValidation)

	shadow := Entry{
		Name:  "shadow",
		Match: func(v any) bool {
			_, ok := v.(ChatAgent)
			return ok
		},
		New:   func(any) (core.Agent, error) { return nil, assert.AnError },
	}
	require.NoError(t, r.Register(shadow))
	_, err = r.Adapt(bareChatAgent{})
	assert.NoError(t, err, "earlier entries win")
}

func TestDefaultRegistry(t *testing.T) {
	assert.Equal(t, []string{ChatAgentShape}, Supported())
}
