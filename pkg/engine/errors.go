package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineNotReady indicates a call could not pass the readiness gate,
	// either because initialization failed or the caller gave up waiting.
	ErrEngineNotReady = errors.New("engine not ready")

	// ErrEngineClosed indicates the bridge was torn down.
	ErrEngineClosed = errors.New("engine closed")

	// ErrViewInvalidated indicates a borrowed view was read after a later
	// engine call could have changed the memory behind it.
	ErrViewInvalidated = errors.New("engine view invalidated")

	// ErrDataTooLarge indicates a buffer does not fit the 32-bit address space.
	ErrDataTooLarge = errors.New("data exceeds engine address space")
)

// CallError reports a failed call across the runtime ABI.
type CallError struct {
	Op  string
	Err error
}

// Error returns the error message.
func (e *CallError) Error() string {
	return fmt.Sprintf("engine %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CallError) Unwrap() error {
	return e.Err
}

// notReady wraps cause so that both ErrEngineNotReady and cause match
// with errors.Is.
func notReady(cause error) error {
	return fmt.Errorf("%w: %w", ErrEngineNotReady, cause)
}
