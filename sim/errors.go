package sim

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is checks.
var (
	ErrConfiguration   = errors.New("configuration error")
	ErrInvalidState    = errors.New("invalid state")
	ErrIndexOutOfRange = errors.New("particle index out of range")
)

// ConfigurationError reports an invalid parameter passed to Reset, Configure or Step.
// Nothing is changed when it is returned.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// InvalidStateError reports an operation called outside the Ready state.
type InvalidStateError struct {
	Op    string
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: cannot %s while %s", e.Op, e.State)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
