package core

import "fmt"

// Error is a structured error with a stable code and an optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError returns a new error with the code and message of base and the given cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Errorf is shorthand for WrapError(base, fmt.Errorf(format, args...)).
func Errorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

var (
	// Caller passed a value outside an operation's domain (negative price, bad side).
	ErrInvalidParameter = &Error{Code: "INVALID_PARAMETER", Message: "invalid parameter"}

	// Simulation input is malformed or misaligned.
	ErrInvalidInput = &Error{Code: "INVALID_INPUT", Message: "invalid simulation input"}

	ErrConfigInvalid   = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrUnknownStrategy = &Error{Code: "UNKNOWN_STRATEGY", Message: "unknown strategy"}
	ErrNotFound        = &Error{Code: "NOT_FOUND", Message: "not found"}
)
