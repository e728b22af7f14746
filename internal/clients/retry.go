package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// RetryConfig bounds the retry/backoff behavior for collaborator calls.
type RetryConfig struct {
	// MaxAttempts is the total number of calls allowed, including the first.
	MaxAttempts int
	// BaseDelay is the delay before the first retry; it doubles each attempt.
	BaseDelay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
}

// DefaultRetryConfig returns sensible defaults for collaborator calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
	}
}

func normalizeRetryConfig(cfg RetryConfig) RetryConfig {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = cfg.BaseDelay
	}
	return cfg
}

// RetriesExhaustedError reports that a transient failure persisted past the
// retry budget. It wraps the last observed failure.
type RetriesExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RetriesExhaustedError) Unwrap() error { return e.Err }

// IsTransient reports whether err carries a transient classification anywhere
// in its chain. Unclassified errors are treated as permanent: a collaborator
// that wants retries must say so.
func IsTransient(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Kind == Transient
	}
	return false
}

// newPolicy builds a failsafe retry policy that retries only on transient
// classified failures, with exponential backoff between attempts.
func newPolicy[T any](cfg RetryConfig) retrypolicy.RetryPolicy[T] {
	return retrypolicy.NewBuilder[T]().
		WithBackoff(cfg.BaseDelay, cfg.MaxDelay).
		WithMaxRetries(cfg.MaxAttempts - 1).
		HandleIf(func(_ T, err error) bool {
			return IsTransient(err)
		}).
		Build()
}

// Execute runs fn through the retry policy. The policy is a pure decorator:
// it knows nothing about what fn does, only about the classification contract.
//
//   - Transient failures are retried up to cfg.MaxAttempts with exponential
//     delay; on exhaustion the last failure is wrapped in RetriesExhaustedError.
//   - Permanent failures surface immediately after a single call.
//   - Context cancellation is honored between attempts, never mid-attempt.
func Execute[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	cfg = normalizeRetryConfig(cfg)

	var attempts int
	result, err := failsafe.With(newPolicy[T](cfg)).WithContext(ctx).Get(func() (T, error) {
		attempts++
		return fn(ctx)
	})
	if err != nil && IsTransient(err) && attempts >= cfg.MaxAttempts {
		return result, &RetriesExhaustedError{Attempts: attempts, Err: err}
	}
	return result, err
}
