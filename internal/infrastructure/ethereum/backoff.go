package ethereum

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

// BackoffStrategy selects how the delay grows between RPC retries.
type BackoffStrategy string

const (
	// BackoffNone waits the initial delay every time.
	BackoffNone BackoffStrategy = "none"
	// BackoffLinear waits attempt * initial delay.
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential waits 2^attempt * initial delay.
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy bounds retries of read-only RPC calls. Transactions are
// never re-sent.
type RetryPolicy struct {
	Strategy     BackoffStrategy
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxAttempts  int
}

// DefaultRetryPolicy retries three times, 250ms to 4s apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Strategy:     BackoffExponential,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     4 * time.Second,
		MaxAttempts:  3,
	}
}

// CalculateBackoff computes the delay for the next retry attempt.
func CalculateBackoff(
	strategy BackoffStrategy,
	attempt int,
	initialDelay time.Duration,
	maxDelay time.Duration,
) time.Duration {
	switch strategy {
	case BackoffNone:
		return initialDelay
	case BackoffLinear:
		// e.g., 1s, 2s, 3s...
		delay := time.Duration(attempt) * initialDelay
		if maxDelay > 0 && delay > maxDelay {
			return maxDelay
		}
		return delay
	case BackoffExponential:
		// e.g., 2s, 4s, 8s...
		if attempt > 62 { // 1<<attempt overflows
			return maxDelay
		}
		delay := time.Duration(1<<attempt) * initialDelay
		if maxDelay > 0 && (delay > maxDelay || delay < 0) {
			return maxDelay
		}
		return delay
	default:
		return initialDelay
	}
}

// withRetry runs a read-only call, retrying transient failures.
func withRetry[T any](ctx context.Context, policy RetryPolicy, op string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := CalculateBackoff(policy.Strategy, attempt, policy.InitialDelay, policy.MaxDelay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}

		v, err := call(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		if !isTransientError(err) {
			break
		}
	}
	return zero, fmt.Errorf("%s: %w", op, lastErr)
}

// isTransientError checks if an error is likely to be temporary.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	// If context is canceled/deadline exceeded, we should stop.
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return true
	}

	// Rate limiting and gateway errors from hosted RPC endpoints
	var httpErr rpc.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 429, 502, 503, 504:
			return true
		}
	}

	return false
}
