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

var _ ports.NodeHandler = (*VideoSourceHandler)(nil)

// VideoSourceHandler introduces the run's input frame into the graph.
// In a test run the caller supplies the frame, so the handler performs
// no capture: it stamps the configured source identifier onto the frame
// reference and forwards it downstream.
//
// Concurrency: VideoSourceHandler is stateless and safe for concurrent
// execution across runs.
type VideoSourceHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.VideoSourceConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewVideoSourceHandler creates a video source handler with validated
// configuration. Returns ErrEmptyNodeID if id is empty, or a
// configuration validation error if the config fails its constraints.
func NewVideoSourceHandler(id string, config domain.VideoSourceConfig) (*VideoSourceHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &VideoSourceHandler{
		name:   id,
		config: config,
		tracer: otel.Tracer("video-source-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (vsh *VideoSourceHandler) Name() string { return vsh.name }

// Kind returns the node kind this handler implements.
func (vsh *VideoSourceHandler) Kind() domain.NodeKind { return domain.KindVideoSource }

// Execute forwards the run's input frame. A frame reference whose
// source id is unset inherits the configured source id, so reports
// always name the camera the workflow was built for.
func (vsh *VideoSourceHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	_, span := vsh.tracer.Start(ctx, "VideoSourceHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindVideoSource)),
			attribute.String("node.id", vsh.name),
			attribute.String("source.id", vsh.config.SourceID),
		),
	)
	defer span.End()

	frame := state.Input().Frame
	if frame.SourceID == "" {
		frame.SourceID = vsh.config.SourceID
	}

	span.SetAttributes(
		attribute.String("frame.image_ref", frame.ImageRef),
		attribute.Int("frame.width", frame.Width),
		attribute.Int("frame.height", frame.Height),
	)

	return domain.Payload{Frame: &frame}, nil
}

// Validate verifies the handler is properly configured without executing.
func (vsh *VideoSourceHandler) Validate() error {
	if err := validate.Struct(vsh.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateVideoSourceHandler builds a video source handler from an
// untyped node configuration. It is the factory the handler registry
// registers for the videoSource kind.
func CreateVideoSourceHandler(id string, config domain.NodeConfig) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: video source node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.VideoSourceConfig)
	if !ok {
		return nil, fmt.Errorf("%w: video source node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewVideoSourceHandler(id, cfg)
}
