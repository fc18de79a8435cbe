// Package apperr models the server's error taxonomy: a small closed set
// of kinds, each with an HTTP status and a JSON-RPC code, plus a
// sanitized external message that never leaks internal detail unless the
// kind is explicitly allow-listed for passthrough.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the closed set of application error categories.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindAuth          Kind = "auth_error"
	KindAccess        Kind = "access_error"
	KindRateLimited   Kind = "rate_limited"
	KindQuotaExceeded Kind = "quota_exceeded"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
	KindInternal      Kind = "internal_error"
)

// httpStatus maps each kind to its HTTP status code.
var httpStatus = map[Kind]int{
	KindValidation:    http.StatusBadRequest,
	KindAuth:          http.StatusUnauthorized,
	KindAccess:        http.StatusForbidden,
	KindRateLimited:   http.StatusTooManyRequests,
	KindQuotaExceeded: http.StatusPaymentRequired,
	KindNotFound:      http.StatusNotFound,
	KindConflict:      http.StatusConflict,
	KindInternal:      http.StatusInternalServerError,
}

// jsonRPCCode maps each kind to a JSON-RPC 2.0 error code. -32000 to
// -32099 is the implementation-defined server-error range; validation
// reuses the standard Invalid Params code.
var jsonRPCCode = map[Kind]int{
	KindValidation:    -32602,
	KindAuth:          -32001,
	KindAccess:        -32002,
	KindRateLimited:   -32003,
	KindQuotaExceeded: -32004,
	KindNotFound:      -32005,
	KindConflict:      -32006,
	KindInternal:      -32000,
}

// allowListed kinds surface their message verbatim to the caller; all
// others are sanitized to a generic per-kind phrase so internal detail
// (driver errors, stack traces, file paths) never reaches the client.
var allowListed = map[Kind]struct{}{
	KindValidation:    {},
	KindAuth:          {},
	KindAccess:        {},
	KindRateLimited:   {},
	KindQuotaExceeded: {},
	KindNotFound:      {},
	KindConflict:      {},
}

var genericMessage = map[Kind]string{
	KindInternal: "an internal error occurred",
}

// Error is the application error type carried across package boundaries.
// Cause holds the underlying error for logging; it is never serialized.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates an Error of the given kind with a caller-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind, attaching cause for logging
// while message is what (if anything) reaches the caller.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// HTTPStatus returns the HTTP status code for err, or 500 if err is not
// an *Error.
func HTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if status, ok := httpStatus[appErr.Kind]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// JSONRPCCode returns the JSON-RPC error code for err, or the generic
// server-error code if err is not an *Error.
func JSONRPCCode(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		if code, ok := jsonRPCCode[appErr.Kind]; ok {
			return code
		}
	}
	return -32000
}

// SanitizedMessage returns the message safe to return to a caller: the
// original message for allow-listed kinds, otherwise a generic phrase
// that never reflects Cause back to the client.
func SanitizedMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return "an internal error occurred"
	}
	if _, ok := allowListed[appErr.Kind]; ok {
		return appErr.Message
	}
	if msg, ok := genericMessage[appErr.Kind]; ok {
		return msg
	}
	return "an internal error occurred"
}

// KindOf extracts the Kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
