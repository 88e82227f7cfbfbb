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

var _ ports.NodeHandler = (*RoiFilterHandler)(nil)

// RoiFilterHandler restricts upstream detections to the configured
// regions of interest. Each detection is represented by its box center,
// normalized against the frame extents so it can be tested against the
// normalized region polygons. In pre_mask mode detections inside any
// region are dropped; in post_filter mode only detections inside at
// least one region survive.
//
// The payload records the counts before and after filtering so reports
// show what the filter did, not just what survived.
type RoiFilterHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.RoiFilterConfig
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewRoiFilterHandler creates an ROI filter handler with validated
// configuration.
func NewRoiFilterHandler(id string, config domain.RoiFilterConfig) (*RoiFilterHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &RoiFilterHandler{
		name:   id,
		config: config,
		tracer: otel.Tracer("roi-filter-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (rfh *RoiFilterHandler) Name() string { return rfh.name }

// Kind returns the node kind this handler implements.
func (rfh *RoiFilterHandler) Kind() domain.NodeKind { return domain.KindRoiFilter }

// Execute filters the upstream detections through the configured
// regions. A filter with no upstream detections succeeds with zero
// counts; a run whose frame does not declare its extents fails, since
// box centers cannot be normalized without them.
func (rfh *RoiFilterHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	_, span := rfh.tracer.Start(ctx, "RoiFilterHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindRoiFilter)),
			attribute.String("node.id", rfh.name),
			attribute.String("roi.mode", string(rfh.config.Mode)),
			attribute.Int("roi.regions", len(rfh.config.Regions)),
		),
	)
	defer span.End()

	detections := upstreamDetections(state)

	kept := detections
	if len(detections) > 0 {
		frame := state.Input().Frame
		if frame.Width <= 0 || frame.Height <= 0 {
			err := fmt.Errorf("%w: roi filter node %q", ErrMissingFrameDimensions, rfh.name)
			span.RecordError(err)
			return domain.Payload{}, err
		}

		kept = make([]domain.Detection, 0, len(detections))
		for _, d := range detections {
			if rfh.keep(d, float64(frame.Width), float64(frame.Height)) {
				kept = append(kept, d)
			}
		}
	}

	span.SetAttributes(
		attribute.Int("roi.before", len(detections)),
		attribute.Int("roi.after", len(kept)),
	)

	return domain.Payload{
		Detections:     kept,
		DetectionCount: len(kept),
		Before:         len(detections),
		After:          len(kept),
	}, nil
}

// keep decides whether one detection survives the filter. The
// representative point is the box center, normalized to [0,1].
func (rfh *RoiFilterHandler) keep(d domain.Detection, frameWidth, frameHeight float64) bool {
	center := domain.BoxCenter(d.Box)
	point := domain.Point{
		X: center.X / frameWidth,
		Y: center.Y / frameHeight,
	}

	inside := false
	for _, region := range rfh.config.Regions {
		if domain.PointInPolygon(point, region) {
			inside = true
			break
		}
	}

	if rfh.config.Mode == domain.RoiPreMask {
		return !inside
	}
	return inside
}

// Validate verifies the handler is properly configured without executing.
func (rfh *RoiFilterHandler) Validate() error {
	if err := validate.Struct(rfh.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateRoiFilterHandler builds an ROI filter handler from an untyped
// node configuration. It is the factory the handler registry registers
// for the roiFilter kind.
func CreateRoiFilterHandler(id string, config domain.NodeConfig) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: roi filter node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.RoiFilterConfig)
	if !ok {
		return nil, fmt.Errorf("%w: roi filter node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewRoiFilterHandler(id, cfg)
}
