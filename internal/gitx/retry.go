package gitx

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RetryConfig controls retries while another git process holds the index lock.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries).
	MaxRetries int
	// InitialBackoff is the initial delay before the first retry.
	InitialBackoff time.Duration
	// MaxBackoff is the maximum delay between retries.
	MaxBackoff time.Duration
	// Multiplier is the factor by which backoff increases with each retry.
	Multiplier float64
}

// DefaultRetryConfig returns the backoff used for index.lock contention.
func DefaultRetryConfig(maxRetries int) *RetryConfig {
	return &RetryConfig{
		MaxRetries:     maxRetries,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		Multiplier:     2.0,
	}
}

// indexLockError marks a failure caused by a held .git/index.lock.
type indexLockError struct {
	err error
}

func (e *indexLockError) Error() string { return e.err.Error() }

func (e *indexLockError) Unwrap() error { return e.err }

func isIndexLocked(stderr string) bool {
	return strings.Contains(stderr, "index.lock")
}

// executeWithRetry runs fn and retries it with exponential backoff while it
// fails with an indexLockError.
func executeWithRetry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil || config.MaxRetries <= 0 {
		return fn()
	}

	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var lockErr *indexLockError
		if !errors.As(err, &lockErr) {
			return err
		}
		if attempt >= config.MaxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled during retry: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * config.Multiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	return fmt.Errorf("index still locked after %d attempts: %w", config.MaxRetries+1, lastErr)
}
