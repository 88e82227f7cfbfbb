package detection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := NewClient("warp", ClientConfig{})

	assert.EqualError(t, err, "unknown detection provider: warp")
}

func TestNewClient_WrapsFactoryErrors(t *testing.T) {
	_, err := NewClient("http", ClientConfig{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create detection provider")
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestNewClient_StaticBackend(t *testing.T) {
	client, err := NewClient("static", ClientConfig{
		StaticResults: map[string][]domain.Detection{
			"person-v2": {
				{Box: domain.BoundingBox{X1: 10, Y1: 10, X2: 50, Y2: 90}, Confidence: 0.9, ClassName: "person"},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "static", client.Provider())

	resp, err := client.Detect(context.Background(), ports.DetectionRequest{
		AlgorithmID: "person-v2",
		ImageRef:    "frames/0001.jpg",
	})
	require.NoError(t, err)
	require.Len(t, resp.Detections, 1)
	assert.Equal(t, "person", resp.Detections[0].ClassName)
}

// orderedDetector records when the middleware layer it belongs to sees a
// request, so chain composition order can be asserted.
type orderedDetector struct {
	next  CoreDetector
	label string
	log   *[]string
}

func (o *orderedDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	*o.log = append(*o.log, o.label)
	return o.next.DoDetect(ctx, req)
}

func (o *orderedDetector) Provider() string { return o.next.Provider() }

func labelMiddleware(label string, log *[]string) Middleware {
	return func(next CoreDetector) CoreDetector {
		return &orderedDetector{next: next, label: label, log: log}
	}
}

func TestNewClient_FirstMiddlewareIsOutermost(t *testing.T) {
	var log []string

	client, err := NewClient("static", ClientConfig{
		StaticResults: map[string][]domain.Detection{"person-v2": {}},
		Middleware: []Middleware{
			labelMiddleware("outer", &log),
			labelMiddleware("inner", &log),
		},
	})
	require.NoError(t, err)

	_, err = client.Detect(context.Background(), ports.DetectionRequest{
		AlgorithmID: "person-v2",
		ImageRef:    "frames/0001.jpg",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"outer", "inner"}, log)
}

func TestRegisterProviderFactory(t *testing.T) {
	mock := NewMockCoreDetector()
	mock.ProviderName = "fixture-backend"

	RegisterProviderFactory("fixture-backend", func(ClientConfig) (CoreDetector, error) {
		return mock, nil
	})

	client, err := NewClient("fixture-backend", ClientConfig{})
	require.NoError(t, err)
	assert.Equal(t, "fixture-backend", client.Provider())

	_, err = client.Detect(context.Background(), ports.DetectionRequest{AlgorithmID: "any"})
	require.NoError(t, err)
	assert.Equal(t, 1, mock.GetCallCount())
}
