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

var _ ports.NodeHandler = (*RecordHandler)(nil)

// RecordHandler marks that a recording would start. No footage is
// written during a test run; reaching the node means the branch leading
// to it was taken, so the intent is recorded unconditionally with the
// configured duration and label.
type RecordHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.RecordConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewRecordHandler creates a record handler with validated configuration.
func NewRecordHandler(id string, config domain.RecordConfig) (*RecordHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RecordHandler{
		name:   id,
		config: config,
		tracer: otel.Tracer("record-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (rh *RecordHandler) Name() string { return rh.name }

// Kind returns the node kind this handler implements.
func (rh *RecordHandler) Kind() domain.NodeKind { return domain.KindRecord }

// Execute records the recording intent.
func (rh *RecordHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	_, span := rh.tracer.Start(ctx, "RecordHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindRecord)),
			attribute.String("node.id", rh.name),
			attribute.Int("record.duration_seconds", rh.config.DurationSeconds),
			attribute.String("record.label", rh.config.Label),
		),
	)
	defer span.End()

	return domain.Payload{
		Recording: &domain.RecordingIntent{
			Requested:       true,
			Label:           rh.config.Label,
			DurationSeconds: rh.config.DurationSeconds,
		},
	}, nil
}

// Validate verifies the handler is properly configured without executing.
func (rh *RecordHandler) Validate() error {
	if err := validate.Struct(rh.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateRecordHandler builds a record handler from an untyped node
// configuration. It is the factory the handler registry registers for
// the record kind.
func CreateRecordHandler(id string, config domain.NodeConfig) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: record node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.RecordConfig)
	if !ok {
		return nil, fmt.Errorf("%w: record node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewRecordHandler(id, cfg)
}
