package detection

import (
	"context"
	"fmt"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

// staticProviderName identifies the canned-data backend.
const staticProviderName = "static"

// staticModelVersion is reported for all canned responses.
const staticModelVersion = "static-fixture"

func init() {
	RegisterProviderFactory(staticProviderName, newStaticProvider)
}

// staticProvider serves canned detections keyed by algorithm id. It
// backs offline test execution: workflows run against previously
// captured detection data instead of a live inference service, which
// also makes CLI runs reproducible.
type staticProvider struct {
	results map[string][]domain.Detection
}

// newStaticProvider creates the canned-data backend from the
// StaticResults in the configuration. The result map is copied, so
// later mutation of the config does not leak into served responses.
func newStaticProvider(config ClientConfig) (CoreDetector, error) {
	results := make(map[string][]domain.Detection, len(config.StaticResults))
	for algorithmID, detections := range config.StaticResults {
		copied := make([]domain.Detection, len(detections))
		copy(copied, detections)
		results[algorithmID] = copied
	}
	return &staticProvider{results: results}, nil
}

// DoDetect returns the canned detections for the requested algorithm.
// Unknown algorithm ids fail with the not-found classification, the
// same way a live service answering 404 would.
func (p *staticProvider) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, p.wrapContextErr(req.AlgorithmID, err)
	}

	detections, ok := p.results[req.AlgorithmID]
	if !ok {
		return nil, ports.NewDetectionError(staticProviderName, req.AlgorithmID, "detect",
			fmt.Errorf("%w: %q", ports.ErrAlgorithmNotFound, req.AlgorithmID))
	}

	// Hand out a copy so callers can filter in place without
	// corrupting the fixture.
	out := make([]domain.Detection, len(detections))
	copy(out, detections)

	return &ports.DetectionResponse{
		Detections:   out,
		ModelVersion: staticModelVersion,
	}, nil
}

// wrapContextErr classifies a context failure the same way the HTTP
// backend does, so callers see a uniform taxonomy.
func (p *staticProvider) wrapContextErr(algorithmID string, err error) error {
	classifier := &ErrorClassifier{Provider: staticProviderName}
	return classifier.ClassifyContextError(algorithmID, err)
}

// Provider returns the backend name.
func (p *staticProvider) Provider() string { return staticProviderName }
