package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrValidation is the base error for malformed input values.
	ErrValidation = errors.New("validation error")

	// ErrInvalidRole indicates a role string that maps to no Role.
	ErrInvalidRole = fmt.Errorf("%w: invalid role", ErrValidation)

	// ErrInvalidAgentType indicates an agent type string that maps to no AgentType.
	ErrInvalidAgentType = fmt.Errorf("%w: invalid agent type", ErrValidation)

	// ErrUnsupportedType is returned by factories and dispatchers when no
	// registered implementation handles the given kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrMissingCapability is returned when a wrapped object lacks an operation.
	ErrMissingCapability = errors.New("missing capability")

	// ErrCancelled marks an operation aborted through its context.
	ErrCancelled = errors.New("operation cancelled")

	// ErrNotFound is returned by stores and registries for unknown keys.
	ErrNotFound = errors.New("not found")
)

// ValidationError represents a rejected input value.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// Unwrap exposes the sentinel so errors.Is(err, ErrValidation) holds.
func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrValidation
}

// UnsupportedTypeError names the offending type and what is currently supported.
type UnsupportedTypeError struct {
	Kind      string   // what was being dispatched, e.g. "agent" or "model provider"
	Type      string   // offending type or tag
	Supported []string // currently supported shapes / tags
}

func (e *UnsupportedTypeError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("unsupported %s type: %s", e.Kind, e.Type)
	}
	return fmt.Sprintf(
		"unsupported %s type: %s. Currently supported: %s",
		e.Kind, e.Type, strings.Join(e.Supported, ", "),
	)
}

// Unwrap returns ErrUnsupportedType.
func (e *UnsupportedTypeError) Unwrap() error { return ErrUnsupportedType }

// MissingCapabilityError is returned when a delegated operation has no
// matching member on the wrapped object.
type MissingCapabilityError struct {
	Member  string
	Wrapper string
}

func (e *MissingCapabilityError) Error() string {
	return fmt.Sprintf("'%s' object has no attribute '%s'", e.Wrapper, e.Member)
}

// Unwrap returns ErrMissingCapability.
func (e *MissingCapabilityError) Unwrap() error { return ErrMissingCapability }

// Cancelled converts a context error into a cancellation outcome. The result
// matches both ErrCancelled and the original context error.
func Cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, ctx.Err())
}

// IsCancelled reports whether err is a cancellation outcome rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
