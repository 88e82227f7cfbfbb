package detection

import (
	"context"
	"sync"
	"time"

	"github.com/ahrav/go-vigil/internal/ports"
)

// MockCoreDetector provides a configurable mock implementation of
// CoreDetector for testing. It allows precise control over response
// behavior, timing, and error conditions to facilitate comprehensive
// middleware testing.
type MockCoreDetector struct {
	mu sync.Mutex

	// Response configuration
	Response      *ports.DetectionResponse
	Error         error
	ProviderName  string
	ResponseDelay time.Duration

	// Behavior flags
	FailUntilAttempt int // Fail for first N attempts, then succeed

	// Tracking
	CallCount   int
	LastRequest ports.DetectionRequest
	Requests    []ports.DetectionRequest
}

// NewMockCoreDetector creates a mock with default successful behavior:
// an empty detection list and no error.
func NewMockCoreDetector() *MockCoreDetector {
	return &MockCoreDetector{
		Response:     &ports.DetectionResponse{ModelVersion: "mock"},
		ProviderName: "mock",
	}
}

// DoDetect implements the CoreDetector interface with configurable behavior.
func (m *MockCoreDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	m.mu.Lock()
	m.CallCount++
	m.LastRequest = req
	m.Requests = append(m.Requests, req)
	attempt := m.CallCount
	delay := m.ResponseDelay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailUntilAttempt > 0 && attempt <= m.FailUntilAttempt {
		if m.Error != nil {
			return nil, m.Error
		}
		return nil, mockFailure{}
	}

	if m.Error != nil {
		return nil, m.Error
	}
	return m.Response, nil
}

// Provider returns the configured provider name.
func (m *MockCoreDetector) Provider() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ProviderName
}

// GetCallCount returns the number of times DoDetect was called.
func (m *MockCoreDetector) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}

// Reset clears all tracking data while preserving configuration.
func (m *MockCoreDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount = 0
	m.LastRequest = ports.DetectionRequest{}
	m.Requests = nil
}

// mockFailure is the default error for simulated failures.
type mockFailure struct{}

func (mockFailure) Error() string { return "simulated failure" }
