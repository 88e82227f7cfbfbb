package detection

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-vigil/internal/ports"
)

// tracedDetector implements distributed tracing for request
// observability. Each inference call becomes a span nested under the
// executing node's span, so a report line can be traced back to the
// exact service call that produced it.
type tracedDetector struct {
	next        CoreDetector
	serviceName string
	tracer      trace.Tracer
}

// TracingMiddleware creates middleware that wraps each detection call
// in an OpenTelemetry span carrying the service name, provider,
// algorithm id, and result size.
func TracingMiddleware(serviceName string) Middleware {
	return func(next CoreDetector) CoreDetector {
		return &tracedDetector{
			next:        next,
			serviceName: serviceName,
			tracer:      otel.Tracer("detection-client"),
		}
	}
}

// DoDetect executes the request within a trace span.
func (t *tracedDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	ctx, span := t.tracer.Start(ctx, "detection.request",
		trace.WithAttributes(
			attribute.String("service.name", t.serviceName),
			attribute.String("detection.provider", t.next.Provider()),
			attribute.String("detection.algorithm_id", req.AlgorithmID),
			attribute.String("detection.image_ref", req.ImageRef),
			attribute.Int("detection.image_bytes", len(req.ImageBytes)),
		),
	)
	defer span.End()

	resp, err := t.next.DoDetect(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("detection.count", len(resp.Detections)),
		attribute.String("detection.model_version", resp.ModelVersion),
	)
	return resp, nil
}

// Provider returns the provider name from the wrapped implementation.
func (t *tracedDetector) Provider() string { return t.next.Provider() }
