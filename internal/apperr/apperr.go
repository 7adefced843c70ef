// Package apperr defines the tagged error variants used at each service
// boundary. Each failure is classified once, where it originates, so
// callers switch on the kind instead of re-inspecting error shapes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error by the boundary it crossed.
type Kind int

const (
	// KindValidation is rejected input: empty message, bad title, bad ID.
	KindValidation Kind = iota
	// KindNotFound is a missing or foreign-owned record.
	KindNotFound
	// KindStore is a database write, read, or subscribe failure.
	KindStore
	// KindRelay is a failure reported by the language-model provider.
	KindRelay
	// KindInternal is an unexpected failure, including malformed provider
	// responses that parsed as success but carried no usable reply.
	KindInternal
)

// Error carries a kind, a user-facing message, an optional wrapped cause,
// and for relay errors the status reported by the provider.
type Error struct {
	Kind   Kind
	Status int // relay errors only; provider code or upstream HTTP status
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds an input-validation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

// NotFound builds a missing-record error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Store wraps a persistence failure.
func Store(msg string, err error) *Error {
	return &Error{Kind: KindStore, Msg: msg, Err: err}
}

// Relay builds a provider-reported failure. Status is the provider's own
// code when it reported one, otherwise the upstream HTTP status.
func Relay(status int, msg string) *Error {
	return &Error{Kind: KindRelay, Status: status, Msg: msg}
}

// Internal wraps an unexpected failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message extracts the user-facing message from err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return err.Error()
}

// HTTPStatus maps err to the response status: 400 for validation, 404 for
// not found, the provider's status for relay errors, 500 otherwise.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRelay:
		if e.Status >= 400 && e.Status < 600 {
			return e.Status
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
