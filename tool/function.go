package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/hupe1980/meepo/core"
	"github.com/hupe1980/meepo/logging"
)

// Func is the implementation behind a FunctionTool. Args are already
// validated against the definition.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Options configure a FunctionTool.
type Options struct {
	Logger logging.Logger
}

// FunctionTool exposes a plain Go function as a Tool.
//
// Errors are normalized to *ToolError:
//
//	VALIDATION_ERROR -> argument mismatch with the definition
//	EXECUTION_ERROR  -> the function returned an error (non-ToolError)
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	def    core.FunctionDefinition
	fn     Func
	logger logging.Logger
}

// NewFunctionTool constructs a FunctionTool from an explicit definition.
//
// Example:
//
//	def, _ := core.NewFunctionDefinition("calculate_sum", "Calculate the sum of two numbers",
//	  core.NewFunctionParameter("a", "number"),
//	  core.NewFunctionParameter("b", "number"),
//	)
//	sum := tool.NewFunctionTool(def, func(_ context.Context, args map[string]any) (any, error) {
//	  return args["a"].(float64) + args["b"].(float64), nil
//	})
func NewFunctionTool(def core.FunctionDefinition, fn Func, optFns ...func(o *Options)) *FunctionTool {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, f := range optFns {
		f(&opts)
	}
	return &FunctionTool{def: def, fn: fn, logger: logging.OrNoOp(opts.Logger)}
}

// NewFunctionToolFromStruct derives the definition from the argument struct
// T via JSON schema reflection. Fields without `omitempty` are required;
// descriptions come from `jsonschema:"description=..."` tags.
//
// Example:
//
//	type SumArgs struct {
//	  A float64 `json:"a" jsonschema:"description=First addend"`
//	  B float64 `json:"b" jsonschema:"description=Second addend"`
//	}
//
//	sum, err := tool.NewFunctionToolFromStruct("calculate_sum", "Calculate the sum of two numbers",
//	  func(_ context.Context, args SumArgs) (any, error) { return args.A + args.B, nil })
func NewFunctionToolFromStruct[T any](
	name, description string,
	fn func(ctx context.Context, args T) (any, error),
	optFns ...func(o *Options),
) (*FunctionTool, error) {
	def, err := DefinitionFromStruct[T](name, description)
	if err != nil {
		return nil, err
	}
	return NewFunctionTool(def, func(ctx context.Context, args map[string]any) (any, error) {
		var typed T
		data, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &typed); err != nil {
			return nil, err
		}
		return fn(ctx, typed)
	}, optFns...), nil
}

// DefinitionFromStruct reflects T into a FunctionDefinition.
func DefinitionFromStruct[T any](name, description string) (core.FunctionDefinition, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	required := make(map[string]bool, len(schema.Required))
	for _, r := range schema.Required {
		required[r] = true
	}

	var params []core.FunctionParameter
	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			prop := pair.Value
			params = append(params, core.NewFunctionParameter(pair.Key, prop.Type, func(p *core.FunctionParameter) {
				p.Description = prop.Description
				p.Required = required[pair.Key]
				p.Default = prop.Default
			}))
		}
	}
	return core.NewFunctionDefinition(name, description, params...)
}

// Definition implements Tool.
func (t *FunctionTool) Definition() core.FunctionDefinition { return t.def }

// Invoke implements Tool. Emits structured logs:
//
//	tool.call.start / tool.call.success / tool.call.validation_failed / tool.call.error
func (t *FunctionTool) Invoke(ctx context.Context, fc core.FunctionCall) (core.FunctionCall, error) {
	start := time.Now()
	name := t.def.Name

	t.logger.Debug("tool.call.start", "tool", name)

	if ctx.Err() != nil {
		return fc, core.Cancelled(ctx)
	}

	if err := t.def.ValidateArguments(fc.Arguments); err != nil {
		t.logger.Warn("tool.call.validation_failed", "tool", name, "error", err.Error())
		return fc, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Err:     err,
		}
	}

	result, err := t.fn(ctx, fc.Arguments)
	if err != nil {
		var toolErr *ToolError
		if errors.As(err, &toolErr) {
			t.logger.Error("tool.call.error", "tool", name, "error", toolErr.Message)
			return fc, toolErr
		}
		if ctx.Err() != nil {
			return fc, core.Cancelled(ctx)
		}
		t.logger.Error("tool.call.error", "tool", name, "error", err.Error())
		return fc, &ToolError{
			Tool:    name,
			Message: err.Error(),
			Code:    CodeExecution,
			Err:     err,
		}
	}

	t.logger.Info("tool.call.success", "tool", name, "duration_ms", time.Since(start).Milliseconds())

	return fc.WithResult(result), nil
}
