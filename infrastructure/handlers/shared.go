// Package handlers provides the node handler implementations that
// execute each workflow node kind for the vigil test execution engine.
package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

// Common errors returned by node handlers.
// These errors provide consistent error handling across all handler implementations.
var (
	// ErrEmptyNodeID is returned when attempting to create a handler with an empty node id.
	ErrEmptyNodeID = errors.New("node id cannot be empty")

	// ErrNilDetectionClient is returned when an algorithm handler is created without a client.
	ErrNilDetectionClient = errors.New("detection client cannot be nil")

	// ErrMissingFrame is returned when a handler needs an input image but the run carries none.
	ErrMissingFrame = errors.New("run input carries no image reference or bytes")

	// ErrMissingFrameDimensions is returned when a handler needs the frame extents
	// but the run input does not declare them.
	ErrMissingFrameDimensions = errors.New("run input does not declare frame dimensions")

	// ErrNoUpstreamDetections is returned when a metric needs a detection
	// from an upstream node that produced none.
	ErrNoUpstreamDetections = errors.New("upstream node produced no detections")

	// ErrUpstreamArityMismatch is returned when the number of detection-bearing
	// upstream inputs does not match what the configured metric consumes.
	ErrUpstreamArityMismatch = errors.New("upstream input count does not match metric arity")
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// detectionInputs returns the upstream contributions that carry
// detections, meaning algorithm and ROI filter outputs, in incoming
// edge declaration order.
func detectionInputs(state ports.ExecutionState) []domain.Upstream {
	var inputs []domain.Upstream
	for _, u := range state.Upstream() {
		switch u.Kind {
		case domain.KindAlgorithm, domain.KindRoiFilter:
			inputs = append(inputs, u)
		}
	}
	return inputs
}

// upstreamDetections flattens the detections of every detection-bearing
// upstream contribution, preserving edge order.
func upstreamDetections(state ports.ExecutionState) []domain.Detection {
	var detections []domain.Detection
	for _, u := range detectionInputs(state) {
		detections = append(detections, u.Payload.Detections...)
	}
	return detections
}

// upstreamDetectionCount sums the detection counts reported by all
// upstream contributions. Non detection-bearing payloads report zero
// except conditions, which forward the count they observed.
func upstreamDetectionCount(state ports.ExecutionState) int {
	count := 0
	for _, u := range state.Upstream() {
		count += u.Payload.DetectionCount
	}
	return count
}

// bestDetection selects the highest-confidence detection, breaking ties
// toward the earlier entry so repeated runs pick the same box.
func bestDetection(detections []domain.Detection) (domain.Detection, bool) {
	if len(detections) == 0 {
		return domain.Detection{}, false
	}
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return best, true
}
