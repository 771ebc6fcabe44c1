package protocol

import "fmt"

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	ErrUnknown          ErrorCode = 0x0000 // Unknown error
	ErrMalformedFrame   ErrorCode = 0x0001 // Frame is not a JSON array with a string head
	ErrUnknownOperation ErrorCode = 0x0002 // Operation name outside the closed set
	ErrInvalidArgument  ErrorCode = 0x0003 // Wrong arity or argument type
	ErrFrameTooLarge    ErrorCode = 0x0004 // Frame exceeds MaxFrameSize
	ErrMalformedMessage ErrorCode = 0x0005 // Outbound message could not be decoded
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case ErrUnknown:
		return "Unknown"
	case ErrMalformedFrame:
		return "MalformedFrame"
	case ErrUnknownOperation:
		return "UnknownOperation"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrFrameTooLarge:
		return "FrameTooLarge"
	case ErrMalformedMessage:
		return "MalformedMessage"
	default:
		return "Unknown"
	}
}

// Error is returned for frames that cannot be decoded.
type Error struct {
	Code    ErrorCode
	Op      string // operation name, if one was read
	Message string
	Err     error
}

func newError(code ErrorCode, op, msg string, err error) *Error {
	return &Error{Code: code, Op: op, Message: msg, Err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := "protocol: " + e.Code.String()
	if e.Op != "" {
		s += fmt.Sprintf(" %q", e.Op)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying decode error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, so callers can write
// errors.Is(err, &protocol.Error{Code: protocol.ErrUnknownOperation}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}
