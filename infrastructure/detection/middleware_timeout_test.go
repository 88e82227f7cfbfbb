package detection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/ports"
)

func TestTimeoutMiddleware_CutsOffSlowBackends(t *testing.T) {
	mock := NewMockCoreDetector()
	mock.ResponseDelay = 300 * time.Millisecond

	detector := TimeoutMiddleware(30 * time.Millisecond)(mock)

	start := time.Now()
	_, err := detector.DoDetect(context.Background(), ports.DetectionRequest{
		AlgorithmID: "person-v2",
		ImageRef:    "frames/0001.jpg",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestTimeoutMiddleware_PassesFastResponsesThrough(t *testing.T) {
	mock := NewMockCoreDetector()

	detector := TimeoutMiddleware(time.Second)(mock)

	resp, err := detector.DoDetect(context.Background(), ports.DetectionRequest{
		AlgorithmID: "person-v2",
		ImageRef:    "frames/0001.jpg",
	})

	require.NoError(t, err)
	assert.Equal(t, "mock", resp.ModelVersion)
}

func TestTimeoutMiddleware_TighterCallerDeadlineWins(t *testing.T) {
	mock := NewMockCoreDetector()
	mock.ResponseDelay = 300 * time.Millisecond

	detector := TimeoutMiddleware(10 * time.Second)(mock)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := detector.DoDetect(ctx, ports.DetectionRequest{
		AlgorithmID: "person-v2",
		ImageRef:    "frames/0001.jpg",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}
