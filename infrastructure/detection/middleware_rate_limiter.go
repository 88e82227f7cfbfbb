package detection

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/ahrav/go-vigil/internal/ports"
)

// rateLimitedDetector implements rate limiting using a token bucket
// algorithm. This keeps the client inside the inference service's
// request quota and paces bursts of concurrent test runs.
type rateLimitedDetector struct {
	next    CoreDetector
	limiter *rate.Limiter
}

// RateLimitMiddleware creates middleware that enforces rate limiting using a token bucket algorithm.
// The limit parameter sets requests per second, while burst allows
// temporary spikes above the sustained rate.
func RateLimitMiddleware(limit rate.Limit, burst int) Middleware {
	limiter := rate.NewLimiter(limit, burst)

	return func(next CoreDetector) CoreDetector {
		return &rateLimitedDetector{
			next:    next,
			limiter: limiter,
		}
	}
}

// DoDetect waits for rate limit permission before forwarding the request.
// This blocks the calling goroutine until a token is available or the
// context is done, whichever comes first.
func (r *rateLimitedDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.next.DoDetect(ctx, req)
}

// Provider returns the provider name from the wrapped implementation.
func (r *rateLimitedDetector) Provider() string { return r.next.Provider() }
