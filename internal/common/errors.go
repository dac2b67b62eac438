// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Processing errors.
	ErrNoRules        = errors.New("no extraction rules configured")
	ErrScopeDisabled  = errors.New("scope is disabled")
	ErrProcessingBusy = errors.New("scope is already being processed")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ChannelError records a failure on a single channel during a processing
// pass. One channel failing never aborts the pass; the engine counts these
// and moves on.
type ChannelError struct {
	Err      error
	StreamID string
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.StreamID, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// NewChannelError wraps an error with the stream ID it occurred on.
func NewChannelError(streamID string, err error) error {
	return &ChannelError{StreamID: streamID, Err: err}
}

// ReconciliationError records a failure during the stale-assignment sweep.
// Unlike channel errors this aborts the pass: a partial sweep would leave
// tags attached that no current rule produces.
type ReconciliationError struct {
	Err     error
	ScopeID int64
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("reconciliation sweep failed for scope %d: %v", e.ScopeID, e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}

// NewReconciliationError wraps a sweep failure with its scope.
func NewReconciliationError(scopeID int64, err error) error {
	return &ReconciliationError{ScopeID: scopeID, Err: err}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrProcessingBusy) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
