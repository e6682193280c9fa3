package util

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies engine failures so callers can branch without
// string matching.
type ErrorKind string

const (
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	KindForbidden           ErrorKind = "FORBIDDEN"
	KindPreconditionFailed  ErrorKind = "PRECONDITION_FAILED"
	KindConflict            ErrorKind = "CONFLICT"
	KindBusy                ErrorKind = "BUSY"
	KindUpstreamUnavailable ErrorKind = "UPSTREAM_UNAVAILABLE"
	KindValidation          ErrorKind = "VALIDATION_FAILED"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindInternal            ErrorKind = "INTERNAL_ERROR"
)

// DomainError standardizes application errors. Every error surfaced to a
// caller is structured: kind, message and the ticket it concerns.
type DomainError struct {
	Kind     ErrorKind
	Message  string
	TicketID string
	Details  map[string]any
	Err      error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// HTTPStatus maps the error kind onto a transport status code.
func (e *DomainError) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindPreconditionFailed:
		return http.StatusUnprocessableEntity
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindBusy:
		return http.StatusTooManyRequests
	case KindUpstreamUnavailable:
		return http.StatusBadGateway
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// NewDomainError constructs a DomainError.
func NewDomainError(kind ErrorKind, message, ticketID string, details map[string]any) *DomainError {
	return &DomainError{Kind: kind, Message: message, TicketID: ticketID, Details: details}
}

func NewNotFound(ticketID string) error {
	return &DomainError{
		Kind:     KindNotFound,
		Message:  "ticket not found",
		TicketID: ticketID,
	}
}

func NewInvalidTransition(ticketID, from, to string) error {
	return &DomainError{
		Kind:     KindInvalidTransition,
		Message:  fmt.Sprintf("no transition from %s to %s", from, to),
		TicketID: ticketID,
		Details:  map[string]any{"from": from, "to": to},
	}
}

func NewForbidden(message, ticketID string) error {
	return NewDomainError(KindForbidden, message, ticketID, nil)
}

// NewPreconditionFailed names the specific unmet condition.
func NewPreconditionFailed(condition, ticketID string) error {
	return &DomainError{
		Kind:     KindPreconditionFailed,
		Message:  condition,
		TicketID: ticketID,
		Details:  map[string]any{"condition": condition},
	}
}

func NewConflict(ticketID string) error {
	return NewDomainError(KindConflict, "ticket was modified concurrently", ticketID, nil)
}

// NewBusy is surfaced after internal conflict retries are exhausted; the
// caller may retry.
func NewBusy(ticketID string) error {
	return NewDomainError(KindBusy, "ticket is under contention, retry", ticketID, nil)
}

func NewUpstreamUnavailable(message string, err error) error {
	return &DomainError{Kind: KindUpstreamUnavailable, Message: message, Err: err}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(KindValidation, message, "", details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(KindUnauthorized, message, "", nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Kind:    KindInternal,
		Message: "internal server error",
		Err:     err,
	}
}

// IsKind reports whether err is a DomainError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Kind == kind
}
