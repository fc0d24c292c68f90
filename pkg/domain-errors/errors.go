// Package domainerrors defines coded errors shared across domain services.
// Handlers translate codes to HTTP statuses at the boundary; services and
// stores stay transport-agnostic.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error. Codes form the contract between service
// and transport layers.
type Code string

const (
	// CodeValidation marks user input that fails a policy check.
	CodeValidation Code = "validation"
	// CodeInvalidInput marks input that is structurally wrong (bad types,
	// out-of-range values).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests that cannot be parsed at all.
	CodeBadRequest Code = "bad_request"
	// CodeConflict marks a collision with existing state.
	CodeConflict Code = "conflict"
	// CodeUnauthorized marks missing or failed authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller lacking privilege.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks an absent resource.
	CodeNotFound Code = "not_found"
	// CodeInternal marks unexpected failures. Its message never reaches
	// the client.
	CodeInternal Code = "internal"
	// CodeInvariantViolation marks a broken domain invariant. It surfaces
	// as an internal error; invariants are not client-correctable.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error, optionally wrapping a cause.
type Error struct {
	code    Code
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the error's classification.
func (e *Error) Code() Code { return e.code }

// New creates a coded error with a static message.
func New(code Code, message string) error {
	return &Error{code: code, message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause stays
// reachable through errors.Is/As for sentinel checks.
func Wrap(err error, code Code, message string) error {
	return &Error{code: code, message: message, cause: err}
}

// GetCode extracts the code from err, walking the wrap chain. Errors without
// a code classify as internal.
func GetCode(err error) Code {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// Is is a readability alias for HasCode, used in test assertions.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// Message returns the outermost coded message, without the cause chain.
// Use it where a cause might carry internals that must not reach a client.
func Message(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.message
	}
	return "internal error"
}

// ToHTTPStatus maps err's code to an HTTP status.
func ToHTTPStatus(err error) int {
	switch GetCode(err) {
	// Conflicts disclose facts about the caller's own attempt (a duplicate
	// identifier or a full event), so they ride with the 400 family.
	case CodeValidation, CodeInvalidInput, CodeBadRequest, CodeConflict:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
