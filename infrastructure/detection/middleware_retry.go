package detection

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/ahrav/go-vigil/internal/ports"
)

// retryDetector implements automatic retry logic with exponential
// backoff for transient inference failures.
//
// Test runs do not use this middleware: the engine treats a failed
// detection call as a node failure with no retries, so the chain built
// for test execution leaves it out. It exists for production paths
// where transient service errors should not fail an analysis frame.
type retryDetector struct {
	next       CoreDetector
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries failed requests with
// exponential backoff and jitter. Only errors classified as retryable
// are retried; authentication failures, unknown algorithms, and caller
// cancellation fail immediately.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreDetector) CoreDetector {
		return &retryDetector{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// DoDetect executes the request with automatic retry logic.
func (r *retryDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		resp, err := r.next.DoDetect(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.calculateDelay(attempt, err)):
		}
	}

	return nil, fmt.Errorf("detection failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

// retryable reports whether an error is worth retrying. It trusts the
// DetectionError classification and never retries unclassified errors
// or an open circuit.
func retryable(err error) bool {
	if errors.Is(err, ports.ErrCircuitOpen) {
		return false
	}
	var de *ports.DetectionError
	return errors.As(err, &de) && de.IsRetryable()
}

// calculateDelay computes the backoff before the next attempt. A
// service-provided retry-after hint overrides the computed backoff.
func (r *retryDetector) calculateDelay(attempt int, err error) time.Duration {
	var de *ports.DetectionError
	if errors.As(err, &de) && de.RetryAfter != nil && *de.RetryAfter > 0 {
		return *de.RetryAfter
	}

	if attempt < 0 {
		attempt = 0
	}
	if attempt > 30 {
		attempt = 30
	}
	// #nosec G115 - attempt is bounded between 0 and 30
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Add jitter (±25%)
	// #nosec G404 - Using weak RNG is acceptable for jitter calculation
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}

	return delay
}

// Provider returns the provider name from the wrapped implementation.
func (r *retryDetector) Provider() string { return r.next.Provider() }
