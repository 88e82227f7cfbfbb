package ports

import (
	"context"

	"github.com/ahrav/go-vigil/internal/domain"
)

// DetectionRequest asks the inference capability to run one algorithm
// against one image. Exactly one of ImageRef or ImageBytes must be set;
// when both are present, implementations prefer the raw bytes.
type DetectionRequest struct {
	// AlgorithmID identifies the detection algorithm to invoke.
	AlgorithmID string

	// ImageRef locates the image for services that fetch it themselves.
	ImageRef string

	// ImageBytes carries the raw encoded image for services that accept
	// inline payloads.
	ImageBytes []byte
}

// DetectionResponse is the successful result of one inference call.
type DetectionResponse struct {
	// Detections lists the objects the algorithm found. It may be empty;
	// an empty result is a success, not an error.
	Detections []domain.Detection

	// ModelVersion identifies the model build that produced the result,
	// when the provider reports one.
	ModelVersion string
}

// DetectionClient is the boundary to the external inference capability.
// The engine invokes it once per algorithm node and treats any error
// identically as a node failure: no retries, no fallback. The caller's
// context carries the per-call timeout and run cancellation.
//
// Implementations handle provider specifics such as authentication,
// request encoding, and response parsing.
type DetectionClient interface {
	// Detect runs one algorithm against one image.
	Detect(ctx context.Context, req DetectionRequest) (*DetectionResponse, error)

	// Provider returns the identifier of the backing provider,
	// for spans and metrics.
	Provider() string
}
