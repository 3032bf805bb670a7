// Package domainerrors carries error codes that survive layer boundaries.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate
// them into coded errors from this package; transports map the code to a
// status and a stable, client-safe message.
package domainerrors

import (
	"errors"
	"net/http"
)

// Code identifies the class of a failure independently of its message.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeValidation   Code = "validation_error"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInternal     Code = "internal_error"

	// CodeTimeout means the unit of work did not finish before its deadline
	// and was rolled back. Retryable.
	CodeTimeout Code = "timeout"
	// CodeUnavailable means a backing store could not be reached. The
	// message is never shown verbatim to clients.
	CodeUnavailable Code = "unavailable"

	// Registration outcomes.
	CodeExamNotOpen            Code = "exam_not_open"
	CodeAmountMismatch         Code = "amount_mismatch"
	CodeInsufficientAttendance Code = "insufficient_attendance"
	CodeAlreadyRegistered      Code = "already_registered"
)

// Error is a coded error. Err, when set, is the underlying cause and is kept
// out of Error() output only through the transport layer.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// As extracts the outermost coded error from the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in the chain has code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the code of err, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status used by every handler.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeInsufficientAttendance:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeExamNotOpen, CodeAlreadyRegistered:
		return http.StatusConflict
	case CodeAmountMismatch:
		return http.StatusUnprocessableEntity
	case CodeTimeout, CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicCode is the upper-case code written to clients in response bodies.
func PublicCode(code Code) string {
	switch code {
	case CodeExamNotOpen:
		return "EXAM_NOT_OPEN"
	case CodeAmountMismatch:
		return "AMOUNT_MISMATCH"
	case CodeInsufficientAttendance:
		return "INSUFFICIENT_ATTENDANCE"
	case CodeAlreadyRegistered:
		return "ALREADY_REGISTERED"
	case CodeTimeout:
		return "TRANSACTION_TIMEOUT"
	case CodeUnavailable:
		return "STORAGE_UNAVAILABLE"
	case CodeBadRequest, CodeInvalidInput, CodeValidation:
		return "BAD_REQUEST"
	case CodeUnauthorized:
		return "UNAUTHORIZED"
	case CodeForbidden:
		return "FORBIDDEN"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}
