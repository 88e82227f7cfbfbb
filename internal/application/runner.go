package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/ahrav/go-vigil/internal/domain"
)

// RunRequest is one workflow test submission.
type RunRequest struct {
	// Workflow names the workflow being tested, for reports and metrics.
	Workflow string

	// Graph is the workflow graph to execute.
	Graph domain.Graph

	// Input is the frame the test runs against.
	Input domain.RunInput
}

// RunOutcome pairs a submission with its report or error.
type RunOutcome struct {
	// Workflow echoes the request's workflow name.
	Workflow string

	// Report is the execution report. It is only meaningful when Err
	// is nil.
	Report domain.ExecutionReport

	// Err is set when the run was rejected before execution, for
	// example by graph validation.
	Err error
}

// RunPool executes independent workflow test runs concurrently on a
// bounded worker pool. Each run owns a fresh ExecutionContext inside
// the engine, so concurrent runs from different users cannot interact;
// the pool only bounds how many detection-service-facing runs are in
// flight at once.
type RunPool struct {
	engine *Engine
	pool   *ants.Pool
}

// NewRunPool creates a pool executing at most size runs concurrently.
func NewRunPool(engine *Engine, size int) (*RunPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1, got %d", size)
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	return &RunPool{engine: engine, pool: pool}, nil
}

// Submit schedules one run and invokes done with its outcome from the
// worker goroutine. It returns an error only if the pool rejects the
// task, for example after Release.
func (p *RunPool) Submit(ctx context.Context, req RunRequest, done func(RunOutcome)) error {
	return p.pool.Submit(func() {
		report, err := p.engine.Run(ctx, req.Workflow, req.Graph, req.Input)
		done(RunOutcome{Workflow: req.Workflow, Report: report, Err: err})
	})
}

// RunAll executes every request and blocks until all outcomes are in.
// Outcomes are returned in request order regardless of completion
// order.
func (p *RunPool) RunAll(ctx context.Context, reqs []RunRequest) []RunOutcome {
	outcomes := make([]RunOutcome, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			report, runErr := p.engine.Run(ctx, req.Workflow, req.Graph, req.Input)
			outcomes[i] = RunOutcome{Workflow: req.Workflow, Report: report, Err: runErr}
		})
		if err != nil {
			outcomes[i] = RunOutcome{Workflow: req.Workflow, Err: err}
			wg.Done()
		}
	}

	wg.Wait()
	return outcomes
}

// Running returns the number of runs currently executing.
func (p *RunPool) Running() int { return p.pool.Running() }

// Release stops the pool. Pending submissions fail; in-flight runs
// complete.
func (p *RunPool) Release() { p.pool.Release() }
