// Package apperr defines the error kinds shared by the push pipeline and the
// HTTP status each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for propagation and response mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConfiguration
	KindSigning
	KindAuth
	KindNotFound
	KindDispatch
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConfiguration:
		return "configuration"
	case KindSigning:
		return "signing"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindDispatch:
		return "dispatch"
	default:
		return "internal"
	}
}

// Code returns the machine-readable code used in error response bodies.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	case KindSigning:
		return "SIGNING_ERROR"
	case KindAuth:
		return "AUTH_ERROR"
	case KindNotFound:
		return "NOT_FOUND"
	case KindDispatch:
		return "DISPATCH_ERROR"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is a classified failure. Status and Body are only set for errors
// that carry an upstream HTTP response (auth and dispatch).
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Status  int
	Body    string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so errors.Is(err, apperr.NotFound)
// works against the sentinels below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	Validation    = &Error{Kind: KindValidation}
	Configuration = &Error{Kind: KindConfiguration}
	Signing       = &Error{Kind: KindSigning}
	Auth          = &Error{Kind: KindAuth}
	NotFound      = &Error{Kind: KindNotFound}
	Dispatch      = &Error{Kind: KindDispatch}
)

// New builds a classified error.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap builds a classified error around a cause.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or
// KindInternal if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a kind to the status returned to API callers. Upstream
// 401/403 responses from the token endpoint are not forwarded: the caller's
// own credentials were never at fault, so auth failures report 500.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
