// Package apperr defines the error kinds surfaced by the timesheet, review
// and report operations, and their mapping onto HTTP statuses.
package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// Kind is the machine-checkable category of an error.
type Kind string

const (
	KindValidation    Kind = "validation_error"
	KindNotFound      Kind = "not_found"
	KindAuthorization Kind = "authorization_error"
	KindDelivery      Kind = "delivery_error"
	KindPersistence   Kind = "persistence_error"
	KindRateLimited   Kind = "rate_limited"
)

// Error carries a Kind and a human-readable message, optionally wrapping a cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error

	// forbidden distinguishes a role/tenant refusal (403) from a missing identity (401).
	forbidden bool
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

// Validation reports malformed or inconsistent input.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// NotFound reports a referenced entity that does not exist.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Unauthorized reports a missing or invalid caller identity.
func Unauthorized(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg}
}

// Forbidden reports a caller lacking the role or tenant scope for an operation.
func Forbidden(msg string) *Error {
	return &Error{Kind: KindAuthorization, Message: msg, forbidden: true}
}

// Delivery reports a mail transport rejection or timeout.
func Delivery(msg string, err error) *Error {
	return &Error{Kind: KindDelivery, Message: msg, Err: err}
}

// Persistence reports a storage failure.
func Persistence(msg string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: msg, Err: err}
}

// RateLimited reports a client that exceeded its request allowance.
func RateLimited(msg string) *Error {
	return &Error{Kind: KindRateLimited, Message: msg}
}

// KindOf returns the kind of err, or KindPersistence for errors outside the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Message returns the message of an *Error, or a generic text for foreign errors.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// HTTPStatus maps err onto a response status.
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
	case KindAuthorization:
		if e.forbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case KindDelivery:
		return http.StatusBadGateway
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Body is the JSON shape of a failed response.
type Body struct {
	Message string `json:"message"`
	Code    Kind   `json:"code"`
}

// Write sends err as a JSON failure body with its mapped status. Errors
// outside the taxonomy are logged and reported without their detail.
func Write(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Body{Message: Message(err), Code: KindOf(err)})
}
