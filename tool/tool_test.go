package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/meepo/core"
)

type sumArgs struct {
	A    float64 `json:"a" jsonschema:"description=First addend"`
	B    float64 `json:"b" jsonschema:"description=Second addend"`
	Note string  `json:"note,omitempty"`
}

func sumTool(t *testing.T) *FunctionTool {
	t.Helper()
	st, err := NewFunctionToolFromStruct("calculate_sum", "Calculate the sum of two numbers",
		func(_ context.Context, args sumArgs) (any, error) { return args.A + args.B, nil })
	require.NoError(t, err)
	return st
}

func TestDefinitionFromStruct(t *testing.T) {
	def, err := DefinitionFromStruct[sumArgs]("calculate_sum", "Calculate the sum of two numbers")
	require.NoError(t, err)

	assert.Equal(t, "calculate_sum", def.Name)
	require.Len(t, def.Parameters, 3)
	assert.Equal(t, "number", def.Parameters["a"].Type)
	assert.Equal(t, "First addend", def.Parameters["a"].Description)
	assert.True(t, def.Parameters["a"].Required)
	assert.True(t, def.Parameters["b"].Required)
	assert.False(t, def.Parameters["note"].Required)
	assert.Equal(t, "string", def.Parameters["note"].Type)

	schema := def.JSONSchema()
	assert.Equal(t, []string{"a", "b"}, schema["required"])
}

func TestFunctionTool_InvokePopulatesResult(t *testing.T) {
	st := sumTool(t)

	call := core.NewFunctionCall("calculate_sum", map[string]any{"a": 2.0, "b": 3.0})
	out, err := st.Invoke(context.Background(), call)
	require.NoError(t, err)

	assert.True(t, out.HasResult())
	assert.Equal(t, 5.0, out.Result)
	assert.Equal(t, call.Arguments, out.Arguments)
	assert.False(t, call.HasResult(), "input call must not be mutated")
}

func TestFunctionTool_ValidationError(t *testing.T) {
	st := sumTool(t)

	_, err := st.Invoke(context.Background(), core.NewFunctionCall("calculate_sum", map[string]any{"a": 1.0}))
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.True(t, errors.Is(err, core.ErrValidation))

	_, err = st.Invoke(context.Background(), core.NewFunctionCall("calculate_sum", map[string]any{"a": "x", "b": 1.0}))
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Message, "expected type number")
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	def, err := core.NewFunctionDefinition("fail", "always fails")
	require.NoError(t, err)

	boom := errors.New("boom")
	ft := NewFunctionTool(def, func(context.Context, map[string]any) (any, error) { return nil, boom })

	_, err = ft.Invoke(context.Background(), core.NewFunctionCall("fail", nil))
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	assert.ErrorIs(t, err, boom)

	custom := NewToolError("fail", "quota exceeded", "QUOTA")
	ft = NewFunctionTool(def, func(context.Context, map[string]any) (any, error) { return nil, custom })
	_, err = ft.Invoke(context.Background(), core.NewFunctionCall("fail", nil))
	assert.Same(t, custom, err)
	assert.Equal(t, "tool error [QUOTA] in fail: quota exceeded", err.Error())
}

func TestFunctionTool_Cancelled(t *testing.T) {
	st := sumTool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.Invoke(ctx, core.NewFunctionCall("calculate_sum", map[string]any{"a": 1.0, "b": 1.0}))
	assert.True(t, core.IsCancelled(err))
}

func TestSet(t *testing.T) {
	echoDef, err := core.NewFunctionDefinition("echo", "echo input", core.NewFunctionParameter("text", "string"))
	require.NoError(t, err)
	echo := NewFunctionTool(echoDef, func(_ context.Context, args map[string]any) (any, error) { return args["text"], nil })

	set, err := NewSet(sumTool(t), echo)
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())

	defs := set.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "calculate_sum", defs[0].Name)
	assert.Equal(t, "echo", defs[1].Name)

	out, err := set.Invoke(context.Background(), core.NewFunctionCall("echo", map[string]any{"text": "hi"}))
	require.NoError(t, err)
	assert.Equal(t, "hi", out.Result)

	_, err = set.Invoke(context.Background(), core.NewFunctionCall("missing", nil))
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, set.Add(echo), core.ErrValidation)
}
