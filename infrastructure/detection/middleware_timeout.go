package detection

import (
	"context"
	"time"

	"github.com/ahrav/go-vigil/internal/ports"
)

// timeoutDetector implements request timeout functionality.
// This ensures inference requests don't hang indefinitely and gives
// test runs predictable worst-case latency.
type timeoutDetector struct {
	next    CoreDetector
	timeout time.Duration
}

// TimeoutMiddleware creates middleware that enforces request timeouts.
// The timeout is layered under the caller's context, so whichever
// deadline is tighter wins.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next CoreDetector) CoreDetector {
		return &timeoutDetector{
			next:    next,
			timeout: timeout,
		}
	}
}

// DoDetect executes the request with a timeout context.
// If the request doesn't complete within the timeout duration,
// it returns a context deadline exceeded error.
func (t *timeoutDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.DoDetect(ctx, req)
}

// Provider returns the provider name from the wrapped implementation.
func (t *timeoutDetector) Provider() string { return t.next.Provider() }
