// Package testutils provides shared test doubles and graph fixtures for
// exercising the workflow test execution engine without a live
// detection service.
package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.DetectionClient = (*MockDetectionClient)(nil)

// MockDetectionClient implements the DetectionClient interface with
// scripted per-algorithm results for deterministic engine and handler
// tests. It records every request it receives so tests can assert on
// call counts and payloads, and supports error injection and artificial
// latency for failure and timeout scenarios.
//
// Safe for concurrent use; runs executing in parallel may share one
// instance.
type MockDetectionClient struct {
	mu sync.Mutex

	// results maps algorithm ids to the detections returned for them.
	// Unscripted ids return an empty, successful response.
	results map[string][]domain.Detection

	// err, when set, fails every Detect call.
	err error

	// errByAlgorithm injects failures for specific algorithm ids.
	errByAlgorithm map[string]error

	// delay is how long Detect blocks before responding. The block
	// respects context cancellation, which lets tests exercise the
	// caller-timeout path.
	delay time.Duration

	// provider is the reported provider name.
	provider string

	// modelVersion is echoed on every successful response.
	modelVersion string

	// calls counts Detect invocations.
	calls int

	// requests records every request received, in order.
	requests []ports.DetectionRequest
}

// NewMockDetectionClient creates a mock client with no scripted results.
// Every algorithm id resolves to an empty detection list until results
// are added.
func NewMockDetectionClient() *MockDetectionClient {
	return &MockDetectionClient{
		results:        make(map[string][]domain.Detection),
		errByAlgorithm: make(map[string]error),
		provider:       "mock",
		modelVersion:   "mock-model",
	}
}

// AddResult scripts the detections returned for one algorithm id,
// replacing any earlier script for the same id.
func (m *MockDetectionClient) AddResult(algorithmID string, detections []domain.Detection) *MockDetectionClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[algorithmID] = detections
	return m
}

// FailWith makes every Detect call return the given error.
// A nil error restores normal behavior.
func (m *MockDetectionClient) FailWith(err error) *MockDetectionClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailAlgorithmWith injects a failure for one algorithm id while other
// ids keep succeeding.
func (m *MockDetectionClient) FailAlgorithmWith(algorithmID string, err error) *MockDetectionClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errByAlgorithm[algorithmID] = err
	return m
}

// SetDelay makes Detect block for the given duration before responding.
// The block is interrupted by context cancellation.
func (m *MockDetectionClient) SetDelay(d time.Duration) *MockDetectionClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// Detect implements the DetectionClient interface with scripted results.
func (m *MockDetectionClient) Detect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	delay := m.delay
	globalErr := m.err
	algErr := m.errByAlgorithm[req.AlgorithmID]
	detections, scripted := m.results[req.AlgorithmID]
	modelVersion := m.modelVersion
	m.mu.Unlock()

	if req.AlgorithmID == "" {
		return nil, fmt.Errorf("algorithm id cannot be empty")
	}

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if globalErr != nil {
		return nil, globalErr
	}
	if algErr != nil {
		return nil, algErr
	}

	// Copy the scripted detections so callers cannot mutate the script.
	var out []domain.Detection
	if scripted {
		out = make([]domain.Detection, len(detections))
		copy(out, detections)
	}
	return &ports.DetectionResponse{
		Detections:   out,
		ModelVersion: modelVersion,
	}, nil
}

// Provider implements the DetectionClient interface.
func (m *MockDetectionClient) Provider() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider
}

// Calls returns the number of Detect invocations so far.
func (m *MockDetectionClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Requests returns a copy of every request received, in call order.
func (m *MockDetectionClient) Requests() []ports.DetectionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ports.DetectionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// LastRequest returns the most recent request, or a zero request when
// Detect has not been called.
func (m *MockDetectionClient) LastRequest() ports.DetectionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ports.DetectionRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears scripted results, injected errors, and recorded calls.
func (m *MockDetectionClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = make(map[string][]domain.Detection)
	m.errByAlgorithm = make(map[string]error)
	m.err = nil
	m.delay = 0
	m.calls = 0
	m.requests = nil
}
