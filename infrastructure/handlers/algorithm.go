package handlers

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

var _ ports.NodeHandler = (*AlgorithmHandler)(nil)

// AlgorithmHandler invokes the detection client against the run's input
// image and stores the surviving detections. It applies the node's
// minimum-confidence gate and optional class allowlist before anything
// downstream sees the results.
//
// The detection call is the only suspending operation in a run. The
// handler forwards the caller's context unchanged so its deadline and
// cancellation govern the call; any client error fails the node, with
// no retries at this level.
type AlgorithmHandler struct {
	// name is the id of the node this handler is bound to.
	name string
	// config contains the validated configuration parameters.
	config domain.AlgorithmConfig
	// client performs the inference call.
	client ports.DetectionClient
	// classSet holds the case-folded class allowlist, nil when the
	// config names no classes.
	classSet map[string]struct{}
	// tracer is the OpenTelemetry tracer for observability.
	tracer trace.Tracer
}

// NewAlgorithmHandler creates an algorithm handler with validated
// configuration. The client must not be nil.
func NewAlgorithmHandler(id string, config domain.AlgorithmConfig, client ports.DetectionClient) (*AlgorithmHandler, error) {
	if id == "" {
		return nil, ErrEmptyNodeID
	}
	if client == nil {
		return nil, fmt.Errorf("%w: algorithm node %q", ErrNilDetectionClient, id)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	var classSet map[string]struct{}
	if len(config.Classes) > 0 {
		caser := cases.Fold()
		classSet = make(map[string]struct{}, len(config.Classes))
		for _, class := range config.Classes {
			classSet[caser.String(class)] = struct{}{}
		}
	}

	return &AlgorithmHandler{
		name:     id,
		config:   config,
		client:   client,
		classSet: classSet,
		tracer:   otel.Tracer("algorithm-handler"),
	}, nil
}

// Name returns the id of the node this handler is bound to.
func (ah *AlgorithmHandler) Name() string { return ah.name }

// Kind returns the node kind this handler implements.
func (ah *AlgorithmHandler) Kind() domain.NodeKind { return domain.KindAlgorithm }

// Execute runs the configured algorithm against the input image and
// returns the filtered detections. An empty detection list is a
// success; a client error of any classification fails the node.
func (ah *AlgorithmHandler) Execute(ctx context.Context, state ports.ExecutionState) (domain.Payload, error) {
	ctx, span := ah.tracer.Start(ctx, "AlgorithmHandler.Execute",
		trace.WithAttributes(
			attribute.String("node.kind", string(domain.KindAlgorithm)),
			attribute.String("node.id", ah.name),
			attribute.String("algorithm.id", ah.config.AlgorithmID),
			attribute.Float64("algorithm.min_confidence", ah.config.MinConfidence),
		),
	)
	defer span.End()

	input := state.Input()
	if input.Frame.ImageRef == "" && len(input.ImageBytes) == 0 {
		err := fmt.Errorf("%w: algorithm node %q", ErrMissingFrame, ah.name)
		span.RecordError(err)
		return domain.Payload{}, err
	}

	resp, err := ah.client.Detect(ctx, ports.DetectionRequest{
		AlgorithmID: ah.config.AlgorithmID,
		ImageRef:    input.Frame.ImageRef,
		ImageBytes:  input.ImageBytes,
	})
	if err != nil {
		span.RecordError(err)
		return domain.Payload{}, fmt.Errorf("detection call for algorithm %q: %w", ah.config.AlgorithmID, err)
	}

	detections := ah.filterDetections(resp.Detections)

	span.SetAttributes(
		attribute.Int("detections.returned", len(resp.Detections)),
		attribute.Int("detections.kept", len(detections)),
		attribute.String("model.version", resp.ModelVersion),
	)

	return domain.Payload{
		Detections:     detections,
		DetectionCount: len(detections),
	}, nil
}

// filterDetections applies the confidence gate and class allowlist.
// Class matching uses Unicode case folding so editor-entered names need
// not match the model's casing.
func (ah *AlgorithmHandler) filterDetections(detections []domain.Detection) []domain.Detection {
	kept := make([]domain.Detection, 0, len(detections))
	caser := cases.Fold()
	for _, d := range detections {
		if d.Confidence < ah.config.MinConfidence {
			continue
		}
		if ah.classSet != nil {
			if _, ok := ah.classSet[caser.String(d.ClassName)]; !ok {
				continue
			}
		}
		kept = append(kept, d)
	}
	return kept
}

// Validate verifies the handler is properly configured without executing.
func (ah *AlgorithmHandler) Validate() error {
	if ah.client == nil {
		return fmt.Errorf("%w: algorithm node %q", ErrNilDetectionClient, ah.name)
	}
	if err := validate.Struct(ah.config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// CreateAlgorithmHandler builds an algorithm handler from an untyped
// node configuration and the injected detection client. It is the
// factory the handler registry registers for the algorithm kind.
func CreateAlgorithmHandler(id string, config domain.NodeConfig, client ports.DetectionClient) (ports.NodeHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: algorithm node %q", domain.ErrMissingConfig, id)
	}
	cfg, ok := config.(domain.AlgorithmConfig)
	if !ok {
		return nil, fmt.Errorf("%w: algorithm node %q got %T", domain.ErrConfigKindMismatch, id, config)
	}
	return NewAlgorithmHandler(id, cfg, client)
}
