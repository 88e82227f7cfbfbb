// Package detection provides a unified client for invoking object
// detection algorithms with built-in support for rate limiting, circuit
// breaking, caching, metrics, and tracing.
//
// The package abstracts inference backends behind a common interface
// while adding production-ready cross-cutting concerns through a
// middleware pattern. This allows the test engine to switch between a
// live inference service and canned detection data, or to add
// operational features, without changing engine code.
//
// Architecture:
//   - Core client implementation with middleware chain composition
//   - Backend implementations abstracted through the CoreDetector interface
//   - Pluggable middleware for timeouts, retries, rate limiting, circuit
//     breaking, caching, metrics, and tracing
//   - Factory registry for backend creation by name
//
// Basic usage:
//
//	client, err := detection.NewClient("http", detection.ClientConfig{
//	    Endpoint: "https://inference.example.com",
//	    APIKey:   os.Getenv("INFERENCE_API_KEY"),
//	})
//	resp, err := client.Detect(ctx, ports.DetectionRequest{
//	    AlgorithmID: "person-detector-v2",
//	    ImageRef:    "frames/cam-3/0001.jpg",
//	})
//
// Advanced usage with middleware:
//
//	client, err := detection.NewClient("http", detection.ClientConfig{
//	    Endpoint: "https://inference.example.com",
//	    Middleware: []detection.Middleware{
//	        detection.TimeoutMiddleware(5 * time.Second),
//	        detection.CircuitBreakerMiddleware(5, 30*time.Second),
//	        detection.MetricsMiddleware(metricsCollector),
//	    },
//	})
package detection

import (
	"context"
	"fmt"
	"time"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

// CoreDetector defines the minimal interface that detection backends
// must implement. It abstracts the core inference call so the
// middleware system can wrap any conforming implementation.
type CoreDetector interface {
	// DoDetect runs one algorithm against one image and returns the
	// detections found. An empty detection list is a success.
	DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error)

	// Provider returns the identifier of the backing provider.
	Provider() string
}

// ClientConfig holds all configuration options for creating a detection
// client. It centralizes backend settings and middleware insertion.
type ClientConfig struct {
	// Endpoint is the base URL of the inference service. Backends that
	// carry their own data, such as the static backend, ignore it.
	Endpoint string

	// APIKey authenticates requests to the inference service.
	// Leave empty for unauthenticated or local backends.
	APIKey string

	// Timeout sets the maximum duration for individual requests.
	// Zero value means no client-enforced timeout beyond the caller's.
	Timeout time.Duration

	// StaticResults seeds the static backend with canned detections per
	// algorithm id. Other backends ignore it.
	StaticResults map[string][]domain.Detection

	// Middleware allows custom middleware insertion.
	// These are applied in the order specified.
	Middleware []Middleware
}

// Middleware wraps a CoreDetector to add cross-cutting functionality.
// This pattern allows composition of features like rate limiting,
// circuit breaking, and caching without modifying backend logic.
type Middleware func(CoreDetector) CoreDetector

// Verify interface compliance at compile time.
var _ ports.DetectionClient = (*Client)(nil)

// Client implements ports.DetectionClient with all cross-cutting
// concerns. It wraps a backend-specific CoreDetector with middleware to
// provide resilience and observability.
type Client struct {
	core CoreDetector
}

// NewClient creates a detection client for the named backend. It
// assembles the middleware chain and validates configuration before
// returning a ready-to-use client.
func NewClient(providerType string, config ClientConfig) (ports.DetectionClient, error) {
	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown detection provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection provider: %w", err)
	}

	// Apply middleware in reverse order so the first middleware is the outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// Detect runs one algorithm against one image through the middleware
// chain.
func (c *Client) Detect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	return c.core.DoDetect(ctx, req)
}

// Provider returns the identifier of the backing provider.
func (c *Client) Provider() string { return c.core.Provider() }

// ProviderFactory creates a CoreDetector implementation from
// configuration. The registry uses it to build backends by name without
// knowing their concrete types.
type ProviderFactory func(ClientConfig) (CoreDetector, error)

// Provider factory registry for extensibility.
// This allows registration of custom backends at runtime
// while keeping backend construction type-safe.
var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory registers a custom detection backend factory.
// Built-in backends register themselves during package initialization.
func RegisterProviderFactory(providerType string, factory ProviderFactory) {
	providerFactories[providerType] = factory
}
