// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound = errors.New("not found")

	// Scoring errors.
	// ErrScoringUnavailable indicates the model-backed scoring collaborator
	// could not produce a usable judgment (timeout, outage, unparseable
	// response). Callers recover by switching to the deterministic scoring
	// path; this error never reaches an end user.
	ErrScoringUnavailable = errors.New("scoring collaborator unavailable")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MalformedRecordError reports a raw feed record the normalizer could not
// coerce into the common shape. Never retried; the caller decides whether
// to skip the record or abort the whole batch.
type MalformedRecordError struct {
	Err   error
	Field string
	Value string
}

func (e *MalformedRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed record: %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("malformed record: %s %q", e.Field, e.Value)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// NewMalformedRecordError creates a MalformedRecordError for a single field.
func NewMalformedRecordError(field, value string, err error) error {
	return &MalformedRecordError{Field: field, Value: value, Err: err}
}

// IsMalformed reports whether err is a MalformedRecordError.
func IsMalformed(err error) bool {
	var malformed *MalformedRecordError
	return errors.As(err, &malformed)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
