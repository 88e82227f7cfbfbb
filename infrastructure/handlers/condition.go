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

var _ ports.NodeHandler = (*ConditionHandler)(nil)

// ConditionHandler compares the upstream detection count against the
// configured target and selects the output port the run continues
// through. Downstream reachability is decided by the branch pruner from
// the taken port recorded here; the handler itself never touches other
// nodes.
//
// The observed count is forwarded in the payload so chained conditions
// keep working against the same number.
type ConditionHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.ConditionConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewConditionHandler creates a condition handler with validated
// configuration.
func NewConditionHandler(id string, config domain.ConditionConfig) (*ConditionHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ConditionHandler{
		name:   id,
		config: config,
		tracer: otel.Tracer("condition-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (ch *ConditionHandler) Name() string { return ch.name }

// Kind returns the node kind this handler implements.
func (ch *ConditionHandler) Kind() domain.NodeKind { return domain.KindCondition }

// Execute evaluates the count comparison and records the taken port.
// A true outcome takes the yes port, a false outcome the no port; a
// condition with no upstream contributions evaluates against zero.
func (ch *ConditionHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	_, span := ch.tracer.Start(ctx, "ConditionHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindCondition)),
			attribute.String("node.id", ch.name),
			attribute.String("condition.comparison", string(ch.config.ComparisonType)),
			attribute.Int("condition.target_count", ch.config.TargetCount),
		),
	)
	defer span.End()

	count := upstreamDetectionCount(state)
	met := ch.config.ComparisonType.Evaluate(count, ch.config.TargetCount)

	takenPort := domain.PortNo
	if met {
		takenPort = domain.PortYes
	}

	span.SetAttributes(
		attribute.Int("condition.observed_count", count),
		attribute.Bool("condition.met", met),
		attribute.String("condition.taken_port", takenPort),
	)

	return domain.Payload{
		DetectionCount: count,
		Condition: &domain.ConditionOutcome{
			Met:       met,
			TakenPort: takenPort,
			Detail:    fmt.Sprintf("detection count %d %s target %d", count, ch.config.ComparisonType, ch.config.TargetCount),
		},
	}, nil
}

// Validate verifies the handler is properly configured without executing.
func (ch *ConditionHandler) Validate() error {
	if err := validate.Struct(ch.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateConditionHandler builds a condition handler from an untyped
// node configuration. It is the factory the handler registry registers
// for the condition kind.
func CreateConditionHandler(id string, config domain.NodeConfig) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: condition node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.ConditionConfig)
	if !ok {
		return nil, fmt.Errorf("%w: condition node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewConditionHandler(id, cfg)
}
