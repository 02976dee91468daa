package fx

import (
	"errors"
	"fmt"
)

// Input errors are rejected synchronously, before any task is scheduled.
var (
	// ErrUnknownEffect indicates an effect identifier with no registered schema.
	ErrUnknownEffect = errors.New("fx: unknown effect")

	// ErrDimensionMismatch indicates two buffers or masks whose sizes must
	// agree but do not.
	ErrDimensionMismatch = errors.New("fx: dimension mismatch")

	// ErrInvalidSetting indicates a settings key the effect does not declare.
	ErrInvalidSetting = errors.New("fx: invalid setting")

	// ErrInvalidBuffer indicates pixel data whose length does not match
	// width*height*4.
	ErrInvalidBuffer = errors.New("fx: invalid buffer")

	// ErrEngineClosed is returned by every public call after Close.
	ErrEngineClosed = errors.New("fx: engine closed")

	// ErrSuperseded is returned to a caller whose queued task was replaced
	// by a newer submission sharing the same coalescing key.
	ErrSuperseded = errors.New("fx: superseded by newer task")

	// ErrCancelled is returned when the caller's context is cancelled
	// before the result arrives.
	ErrCancelled = errors.New("fx: cancelled")
)

// ExecError wraps a failure that occurred while a task was executing on a
// worker. It carries enough identity for the caller to correlate the
// failure with the submission; other tasks are unaffected.
type ExecError struct {
	TaskID   string
	EffectID string
	Err      error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	return fmt.Sprintf("fx: task %s (effect %q) failed: %v", e.TaskID, e.EffectID, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExecError) Unwrap() error { return e.Err }
