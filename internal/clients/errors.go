// Package clients provides the failure-classification contract shared by all
// external collaborators and the retry/backoff executor that wraps their calls.
package clients

import (
	"fmt"
	"net/http"
)

// FailureKind classifies a collaborator failure for retry purposes.
type FailureKind int

const (
	// Transient failures (network timeouts, rate limits, 5xx responses) are
	// worth retrying with backoff.
	Transient FailureKind = iota
	// Permanent failures (validation, auth, policy rejections, 4xx responses)
	// are not solved by retrying and surface immediately.
	Permanent
)

func (k FailureKind) String() string {
	switch k {
	case Transient:
		return "transient"
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// Error is a classified collaborator failure. Every adapter wraps its
// failures in one of these so the retry executor can decide whether to retry
// without knowing anything about the collaborator itself.
type Error struct {
	Kind FailureKind
	Op   string // collaborator operation, e.g. "gemini.generate"
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failure: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Transientf builds a transient classified error.
func Transientf(op, format string, args ...any) *Error {
	return &Error{Kind: Transient, Op: op, Err: fmt.Errorf(format, args...)}
}

// Permanentf builds a permanent classified error.
func Permanentf(op, format string, args ...any) *Error {
	return &Error{Kind: Permanent, Op: op, Err: fmt.Errorf(format, args...)}
}

// WrapTransient classifies an existing error as transient.
func WrapTransient(op string, err error) *Error {
	return &Error{Kind: Transient, Op: op, Err: err}
}

// WrapPermanent classifies an existing error as permanent.
func WrapPermanent(op string, err error) *Error {
	return &Error{Kind: Permanent, Op: op, Err: err}
}

// FromHTTPStatus classifies an HTTP error response. Rate limits and server
// errors are transient; everything else client-side is permanent.
func FromHTTPStatus(op string, status int, body string) *Error {
	err := fmt.Errorf("unexpected status %d: %s", status, body)
	switch {
	case status == http.StatusTooManyRequests:
		return &Error{Kind: Transient, Op: op, Err: err}
	case status >= 500:
		return &Error{Kind: Transient, Op: op, Err: err}
	default:
		return &Error{Kind: Permanent, Op: op, Err: err}
	}
}
