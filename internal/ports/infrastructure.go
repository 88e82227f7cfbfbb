package ports

import (
	"context"
	"time"
)

// CacheStore caches detection results so repeated test runs against the
// same frame and algorithm do not re-invoke the inference service.
// Implementations may use process memory, Redis, or SQLite; values are
// serialized by the implementation.
type CacheStore interface {
	// Get retrieves a cached value by key.
	// Returns the value and true if found, or nil and false if not found.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value with an expiration time.
	// A zero duration means the item does not expire.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error

	// Delete removes a value from the cache.
	// Returns nil if the key does not exist.
	Delete(ctx context.Context, key string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// MetricsCollector records operational metrics for runs, nodes, and
// detection calls. Implementations integrate with observability
// platforms such as Prometheus.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	RecordHistogram(metric string, value float64, labels map[string]string)
}
