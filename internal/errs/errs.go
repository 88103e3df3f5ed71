package errs

import (
	"errors"
)

// Code is a verification failure code.
type Code string

const (
	InvalidArgument    Code = "invalid_argument"
	BrowserUnavailable Code = "browser_unavailable"
	MockRegistration   Code = "mock_registration"
	NavigationFailed   Code = "navigation_failed"
	ElementNotFound    Code = "element_not_found"
	AssertionFailed    Code = "assertion_failed"
	Artifact           Code = "artifact"
	Canceled           Code = "canceled"
	Internal           Code = "internal"
)

// Error is a coded harness error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" && e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the error code, defaulting to internal.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	return Internal
}

// MessageOf returns the outermost coded message, or "internal error" for
// untyped errors.
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}

// ExitCode maps an error code to a process exit status. Every code maps to a
// non-zero value; 0 is reserved for a completed run.
func ExitCode(code Code) int {
	switch code {
	case InvalidArgument:
		return 2
	case BrowserUnavailable:
		return 3
	case MockRegistration:
		return 4
	case NavigationFailed:
		return 5
	case ElementNotFound:
		return 6
	case AssertionFailed:
		return 7
	case Artifact:
		return 8
	case Canceled:
		return 130
	default:
		return 1
	}
}
