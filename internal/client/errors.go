package client

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed call. Callers branch on the kind, never on
// the error text.
type Kind string

const (
	// KindUnauthorized means the backend rejected the session. The session
	// store is cleared as a side effect before the error is raised.
	KindUnauthorized Kind = "unauthorized"
	// KindForbidden means the caller is authenticated but not permitted.
	KindForbidden Kind = "forbidden"
	// KindApplication means the backend processed the request and rejected
	// it logically (validation, conflict). Never retried.
	KindApplication Kind = "application"
	// KindRetriesExhausted means transient failures persisted past the
	// retry budget.
	KindRetriesExhausted Kind = "retries_exhausted"
	// KindNetworkFailure means a transport attempt never reached the
	// server. Surfaces as the cause of a KindRetriesExhausted error once
	// the budget is spent.
	KindNetworkFailure Kind = "network_failure"
)

// Sentinels for errors.Is matching against Error kinds.
var (
	ErrUnauthorized     = errors.New("client: session rejected")
	ErrForbidden        = errors.New("client: permission denied")
	ErrApplication      = errors.New("client: request rejected")
	ErrRetriesExhausted = errors.New("client: retries exhausted")
	ErrNetworkFailure   = errors.New("client: network failure")
)

// Error is the only failure type Invoke raises for classified outcomes.
type Error struct {
	Kind      Kind
	Operation string
	// Messages carries the backend's message(s), already normalized to a
	// list. Empty for transport-level failures.
	Messages []string
	cause    error
}

func newError(kind Kind, operation string, messages []string, cause error) *Error {
	return &Error{Kind: kind, Operation: operation, Messages: messages, cause: cause}
}

func (e *Error) Error() string {
	msg := e.Message()
	if msg == "" && e.cause != nil {
		msg = e.cause.Error()
	}
	if msg == "" {
		return fmt.Sprintf("client: %s op=%q", e.Kind, e.Operation)
	}
	return fmt.Sprintf("client: %s op=%q: %s", e.Kind, e.Operation, msg)
}

// Message joins multi-part backend messages into one readable string.
func (e *Error) Message() string {
	return strings.Join(e.Messages, "; ")
}

func (e *Error) Unwrap() error { return e.cause }

// Is maps kinds onto the package sentinels so callers can use errors.Is
// without type assertions.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrForbidden:
		return e.Kind == KindForbidden
	case ErrApplication:
		return e.Kind == KindApplication
	case ErrRetriesExhausted:
		return e.Kind == KindRetriesExhausted
	case ErrNetworkFailure:
		return e.Kind == KindNetworkFailure
	}
	return false
}
