package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "busy scope",
			err:  fmt.Errorf("scope %q: %w", "main", ErrProcessingBusy),
			want: true,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: false,
		},
		{
			name: "explicitly retryable",
			err:  &RetryableError{Err: errors.New("flaky"), Retryable: true},
			want: true,
		},
		{
			name: "explicitly not retryable",
			err:  &RetryableError{Err: ErrProcessingBusy, Retryable: false},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestChannelError(t *testing.T) {
	inner := errors.New("channel has no display name")
	err := NewChannelError("stream-042", inner)

	if !errors.Is(err, inner) {
		t.Errorf("errors.Is() = false, want unwrap to %v", inner)
	}
	if !strings.Contains(err.Error(), "stream-042") {
		t.Errorf("Error() = %q, want it to name the stream", err.Error())
	}

	var channelErr *ChannelError
	if !errors.As(err, &channelErr) {
		t.Fatal("errors.As() = false, want *ChannelError")
	}
	if channelErr.StreamID != "stream-042" {
		t.Errorf("StreamID = %q, want %q", channelErr.StreamID, "stream-042")
	}
}

func TestReconciliationError(t *testing.T) {
	inner := errors.New("disk I/O error")
	err := NewReconciliationError(7, inner)

	if !errors.Is(err, inner) {
		t.Errorf("errors.Is() = false, want unwrap to %v", inner)
	}
	if !strings.Contains(err.Error(), "scope 7") {
		t.Errorf("Error() = %q, want it to name the scope", err.Error())
	}

	var reconErr *ReconciliationError
	if !errors.As(err, &reconErr) {
		t.Fatal("errors.As() = false, want *ReconciliationError")
	}
	if reconErr.ScopeID != 7 {
		t.Errorf("ScopeID = %d, want 7", reconErr.ScopeID)
	}
}
