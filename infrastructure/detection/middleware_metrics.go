package detection

import (
	"context"
	"errors"
	"time"

	"github.com/ahrav/go-vigil/internal/ports"
)

// metricsDetector implements request metrics collection.
// This provides observability into inference latency, detection
// volumes, and error rates for operational monitoring.
type metricsDetector struct {
	next      CoreDetector
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that collects request metrics.
// This enables monitoring of inference usage and performance per
// algorithm and provider.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreDetector) CoreDetector {
		return &metricsDetector{
			next:      next,
			collector: collector,
		}
	}
}

// DoDetect executes the request while collecting detailed metrics.
// It tracks request latency, outcome classification, and the number of
// detections returned.
func (m *metricsDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	start := time.Now()
	resp, err := m.next.DoDetect(ctx, req)

	labels := map[string]string{
		"provider":  m.next.Provider(),
		"algorithm": req.AlgorithmID,
		"status":    "success",
	}

	if err != nil {
		switch {
		case errors.Is(err, ports.ErrCircuitOpen):
			labels["status"] = "circuit_open"
		case errors.Is(err, ports.ErrTimeout) || ctx.Err() == context.DeadlineExceeded:
			labels["status"] = "timeout"
		case errors.Is(err, ports.ErrRateLimited):
			labels["status"] = "rate_limited"
		default:
			labels["status"] = "error"
		}
	}

	if m.collector != nil {
		m.collector.RecordHistogram("detection_latency_seconds", time.Since(start).Seconds(), labels)
		m.collector.RecordCounter("detection_requests_total", 1, labels)

		if err == nil {
			m.collector.RecordCounter("detections_returned_total", float64(len(resp.Detections)), labels)
		}
	}

	return resp, err
}

// Provider returns the provider name from the wrapped implementation.
func (m *metricsDetector) Provider() string { return m.next.Provider() }
