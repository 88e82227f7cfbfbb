package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/testutils"
)

func TestNewRunPool_RejectsNonPositiveSize(t *testing.T) {
	engine := newTestEngine(testutils.NewMockDetectionClient())

	for _, size := range []int{0, -1} {
		_, err := NewRunPool(engine, size)
		assert.Error(t, err, "size %d", size)
	}
}

func TestRunPool_RunAll(t *testing.T) {
	client := testutils.NewMockDetectionClient().
		AddResult("person-v2", []domain.Detection{testutils.Det(100, 100, 300, 500, 0.92, "person")})
	engine := newTestEngine(client)

	pool, err := NewRunPool(engine, 2)
	require.NoError(t, err)
	defer pool.Release()

	reqs := []RunRequest{
		{Workflow: "linear", Graph: testutils.LinearGraph(), Input: testutils.Frame()},
		{Workflow: "branching", Graph: testutils.BranchGraph(), Input: testutils.Frame()},
		{Workflow: "invalid", Graph: domain.Graph{}, Input: testutils.Frame()},
		{Workflow: "linear-again", Graph: testutils.LinearGraph(), Input: testutils.Frame()},
	}

	outcomes := pool.RunAll(context.Background(), reqs)
	require.Len(t, outcomes, len(reqs))

	// Outcomes line up with requests regardless of completion order.
	for i, req := range reqs {
		assert.Equal(t, req.Workflow, outcomes[i].Workflow)
	}

	require.NoError(t, outcomes[0].Err)
	assert.True(t, outcomes[0].Report.OverallSuccess)

	require.NoError(t, outcomes[1].Err)
	assert.True(t, outcomes[1].Report.OverallSuccess)

	var verr *domain.ValidationError
	require.Error(t, outcomes[2].Err)
	assert.True(t, errors.As(outcomes[2].Err, &verr))

	require.NoError(t, outcomes[3].Err)
	assert.NotEqual(t, outcomes[0].Report.RunID, outcomes[3].Report.RunID)
}

func TestRunPool_RunAll_SerializesOnSmallPool(t *testing.T) {
	// A pool of one still completes every run; it just runs them one at
	// a time.
	client := testutils.NewMockDetectionClient().
		AddResult("person-v2", []domain.Detection{testutils.Det(100, 100, 300, 500, 0.92, "person")}).
		SetDelay(10 * time.Millisecond)
	engine := newTestEngine(client)

	pool, err := NewRunPool(engine, 1)
	require.NoError(t, err)
	defer pool.Release()

	reqs := make([]RunRequest, 4)
	for i := range reqs {
		reqs[i] = RunRequest{Workflow: "linear", Graph: testutils.LinearGraph(), Input: testutils.Frame()}
	}

	outcomes := pool.RunAll(context.Background(), reqs)
	require.Len(t, outcomes, 4)
	for i, outcome := range outcomes {
		require.NoError(t, outcome.Err, "request %d", i)
		assert.True(t, outcome.Report.OverallSuccess, "request %d", i)
	}
	assert.Equal(t, 4, client.Calls())
}

func TestRunPool_Submit(t *testing.T) {
	client := testutils.NewMockDetectionClient().
		AddResult("person-v2", []domain.Detection{testutils.Det(100, 100, 300, 500, 0.92, "person")})
	engine := newTestEngine(client)

	pool, err := NewRunPool(engine, 2)
	require.NoError(t, err)
	defer pool.Release()

	done := make(chan RunOutcome, 1)
	err = pool.Submit(context.Background(),
		RunRequest{Workflow: "linear", Graph: testutils.LinearGraph(), Input: testutils.Frame()},
		func(outcome RunOutcome) { done <- outcome },
	)
	require.NoError(t, err)

	select {
	case outcome := <-done:
		require.NoError(t, outcome.Err)
		assert.Equal(t, "linear", outcome.Workflow)
		assert.True(t, outcome.Report.OverallSuccess)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not complete")
	}
}

func TestRunPool_SubmitAfterRelease(t *testing.T) {
	engine := newTestEngine(testutils.NewMockDetectionClient())

	pool, err := NewRunPool(engine, 1)
	require.NoError(t, err)
	pool.Release()

	err = pool.Submit(context.Background(),
		RunRequest{Workflow: "linear", Graph: testutils.LinearGraph(), Input: testutils.Frame()},
		func(RunOutcome) {},
	)
	assert.Error(t, err)
}
