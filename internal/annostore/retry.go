package annostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/formulatag/internal/annotation"
)

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int // 0 for transport errors
	Err        error
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %v", e.Err)
	}
	return fmt.Sprintf("retryable error (status %d): %v", e.StatusCode, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// RetryingSaver retries SaveAnnotations on transient failures.
type RetryingSaver struct {
	Client   *Client
	Attempts int
	Log      *slog.Logger

	backoff func(int) time.Duration
}

func (r *RetryingSaver) SaveAnnotations(ctx context.Context, docID string, m annotation.Map) error {
	attempts := max(r.Attempts, 1)
	wait := r.backoff
	if wait == nil {
		wait = Backoff
	}

	var lastErr error
	for attempt := range attempts {
		lastErr = r.Client.SaveAnnotations(ctx, docID, m)
		if lastErr == nil || !IsRetryable(lastErr) || attempt == attempts-1 {
			break
		}
		if r.Log != nil {
			r.Log.Warn("retryable save error", "doc_id", docID, "attempt", attempt, "error", lastErr)
		}
		select {
		case <-time.After(wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
