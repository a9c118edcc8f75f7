package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrStopped indicates the engine has been torn down and cannot run again.
	ErrStopped = errors.New("dynamo: engine stopped")

	// ErrRunning indicates Start was called on an engine whose loop is already active.
	ErrRunning = errors.New("dynamo: engine already running")

	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownMode indicates a mode name with no registered implementation.
	ErrUnknownMode = errors.New("dynamo: unknown mode")

	// ErrBodyInvariant indicates a body with a non-positive radius or a NaN/Inf component,
	// or more than one body being dragged.
	ErrBodyInvariant = errors.New("dynamo: body invariant violated")
)

// FrameError wraps an error with the frame it was detected on.
type FrameError struct {
	Frame   uint64
	Body    int
	Wrapped error
}

func (e *FrameError) Error() string {
	if e.Body < 0 {
		return fmt.Sprintf("frame %d: %v", e.Frame, e.Wrapped)
	}
	return fmt.Sprintf("frame %d body %d: %v", e.Frame, e.Body, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
