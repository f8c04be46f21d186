package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}

func TestWithRetry(t *testing.T) {
	errBoom := errors.New("boom")

	tests := []struct {
		err       func(call int) error
		wantErrIs error
		name      string
		attempts  int
		wantCalls int
	}{
		{
			name:      "succeeds first time",
			attempts:  3,
			err:       func(int) error { return nil },
			wantCalls: 1,
		},
		{
			name:     "succeeds after transient failures",
			attempts: 3,
			err: func(call int) error {
				if call < 3 {
					return errBoom
				}
				return nil
			},
			wantCalls: 3,
		},
		{
			name:      "exhausts attempts",
			attempts:  2,
			err:       func(int) error { return errBoom },
			wantCalls: 2,
			wantErrIs: ErrMaxRetries,
		},
		{
			name:     "stops on non-retryable error",
			attempts: 5,
			err: func(int) error {
				return &RetryableError{Err: errBoom, Retryable: false}
			},
			wantCalls: 1,
			wantErrIs: errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), func() error {
				calls++
				return tt.err(calls)
			}, fastRetry(tt.attempts))

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErrIs != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErrIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithRetryContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := WithRetry(ctx, func() error {
		calls++
		return errors.New("transient")
	}, RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
