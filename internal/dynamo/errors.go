package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for world construction and stepping.
var (
	// ErrInvalidMass indicates a negative or non-finite body mass.
	ErrInvalidMass = errors.New("dynamo: invalid mass (negative, NaN or Inf)")

	// ErrNonFinitePose indicates a position, orientation or velocity containing NaN or Inf.
	ErrNonFinitePose = errors.New("dynamo: non-finite pose")

	// ErrUnknownMaterial indicates a body referencing a material that was never registered.
	ErrUnknownMaterial = errors.New("dynamo: unknown material")

	// ErrInvalidShape indicates a shape with non-positive extents or a zero normal.
	ErrInvalidShape = errors.New("dynamo: invalid shape")

	// ErrInvalidConfig indicates a world or profile parameter outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownBody indicates a handle that does not belong to the world.
	ErrUnknownBody = errors.New("dynamo: unknown body handle")

	// ErrNumericalInstability indicates the solver or integrator produced a non-finite value.
	ErrNumericalInstability = errors.New("dynamo: simulation unstable (non-finite state)")
)

// ConfigError wraps a configuration error with the offending field.
type ConfigError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s (%s=%v)", e.Wrapped.Error(), e.Field, e.Value)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// NewConfigError is shorthand for a *ConfigError.
func NewConfigError(field string, value any, wrapped error) error {
	return &ConfigError{Field: field, Value: value, Wrapped: wrapped}
}

// InstabilityError wraps a numerical failure with simulation context.
type InstabilityError struct {
	Step    int
	Time    float64
	Body    Handle
	Wrapped error
}

func (e *InstabilityError) Error() string {
	if e.Body != 0 {
		return fmt.Sprintf("step %d (t=%.4f) body %d: %s", e.Step, e.Time, e.Body, e.Wrapped.Error())
	}
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Wrapped.Error())
}

func (e *InstabilityError) Unwrap() error {
	return e.Wrapped
}
