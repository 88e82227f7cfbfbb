package handlers

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

var _ ports.NodeHandler = (*FunctionHandler)(nil)

// FunctionHandler computes a geometry metric over upstream detections
// and compares it against the configured threshold. Box-pair metrics
// consume two detection-bearing upstream inputs, frame-relative and
// absolute metrics exactly one; graph validation enforces the wiring,
// and the handler re-checks at execution time.
//
// Each upstream input contributes its highest-confidence detection.
// An upstream that produced no detections fails the node: a metric
// over a missing box has no meaningful value, and reporting a silent
// zero would mask broken workflows.
type FunctionHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.FunctionConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewFunctionHandler creates a function handler with validated
// configuration.
func NewFunctionHandler(id string, config domain.FunctionConfig) (*FunctionHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &FunctionHandler{
		name:   id,
		config: config,
		tracer: otel.Tracer("function-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (fh *FunctionHandler) Name() string { return fh.name }

// Kind returns the node kind this handler implements.
func (fh *FunctionHandler) Kind() domain.NodeKind { return domain.KindFunction }

// Execute computes the configured metric and stores the comparison
// outcome.
func (fh *FunctionHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	_, span := fh.tracer.Start(ctx, "FunctionHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindFunction)),
			attribute.String("node.id", fh.name),
			attribute.String("function.metric", string(fh.config.Metric)),
			attribute.String("function.operator", string(fh.config.Operator)),
			attribute.Float64("function.threshold", fh.config.Threshold),
		),
	)
	defer span.End()

	value, err := fh.computeMetric(state)
	if err != nil {
		span.RecordError(err)
		return domain.Payload{}, err
	}

	met := fh.config.Operator.Evaluate(value, fh.config.Threshold)

	span.SetAttributes(
		attribute.Float64("function.value", value),
		attribute.Bool("function.met", met),
	)

	return domain.Payload{
		Function: &domain.FunctionOutcome{
			Met:       met,
			Metric:    string(fh.config.Metric),
			Value:     value,
			Threshold: fh.config.Threshold,
			Operator:  string(fh.config.Operator),
			Detail:    fmt.Sprintf("%s=%.4f %s %.4f", fh.config.Metric, value, fh.config.Operator, fh.config.Threshold),
		},
	}, nil
}

// computeMetric resolves the upstream boxes the metric needs and
// dispatches to the geometry library.
func (fh *FunctionHandler) computeMetric(state ports.ExecutionState) (float64, error) {
	inputs := detectionInputs(state)
	arity := fh.config.Metric.Arity()
	if len(inputs) != arity {
		return 0, fmt.Errorf("%w: metric %q needs %d detection inputs, node %q has %d",
			ErrUpstreamArityMismatch, fh.config.Metric, arity, fh.name, len(inputs))
	}

	boxes := make([]domain.BoundingBox, 0, arity)
	for _, u := range inputs {
		best, ok := bestDetection(u.Payload.Detections)
		if !ok {
			return 0, fmt.Errorf("%w: node %q input %q", ErrNoUpstreamDetections, fh.name, u.NodeID)
		}
		boxes = append(boxes, best.Box)
	}

	if arity == 2 {
		return domain.ComputePairMetric(fh.config.Metric, boxes[0], boxes[1])
	}

	frame := state.Input().Frame
	if fh.config.Metric != domain.MetricSizeAbsolute && (frame.Width <= 0 || frame.Height <= 0) {
		return 0, fmt.Errorf("%w: metric %q on node %q", ErrMissingFrameDimensions, fh.config.Metric, fh.name)
	}
	return domain.ComputeFrameMetric(fh.config.Metric, boxes[0], float64(frame.Width), float64(frame.Height))
}

// Validate verifies the handler is properly configured without executing.
func (fh *FunctionHandler) Validate() error {
	if err := validate.Struct(fh.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateFunctionHandler builds a function handler from an untyped node
// configuration. It is the factory the handler registry registers for
// the function kind.
func CreateFunctionHandler(id string, config domain.NodeConfig) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: function node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.FunctionConfig)
	if !ok {
		return nil, fmt.Errorf("%w: function node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewFunctionHandler(id, cfg)
}
