package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations.
var (
	// ErrSessionClosed is returned when an operation is attempted on a closed session.
	ErrSessionClosed = errors.New("client: session closed")

	// ErrNotConnected is returned when a frame is written without an open socket.
	ErrNotConnected = errors.New("client: not connected")

	// ErrElementNotFound is returned when a command names an id that is not in the document.
	ErrElementNotFound = errors.New("client: element not found")

	// ErrInvalidURL is returned when the socket URL is not ws:// or wss://.
	ErrInvalidURL = errors.New("client: invalid socket URL")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("client: invalid config")
)

// OperationError wraps a failure of one inbound command.
type OperationError struct {
	Op     string // Operation name
	Target string // Id or selector
	Err    error  // Underlying error
}

// Error returns the error message with operation context.
func (e *OperationError) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("client: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("client: %s %q: %v", e.Op, e.Target, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *OperationError) Unwrap() error {
	return e.Err
}
