package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.ExecutionState = (*executionState)(nil)

// executionState is the per-node view of the run handed to a handler:
// the run input plus the outputs of the node's followed upstream edges.
type executionState struct {
	input    domain.RunInput
	upstream []domain.Upstream
}

func (s *executionState) Input() domain.RunInput      { return s.input }
func (s *executionState) Upstream() []domain.Upstream { return s.upstream }

// Engine executes workflow test runs: it validates the graph, resolves
// a deterministic execution order, dispatches each node to its handler,
// prunes untaken branches, and aggregates the final report.
//
// A single Engine is safe for concurrent use; every run owns a fresh
// ExecutionContext and shares nothing with other runs. Within one run,
// execution is strictly sequential because each node may read the
// in-memory results of the nodes before it.
type Engine struct {
	registry  ports.HandlerRegistry
	validator *GraphValidator
	metrics   ports.MetricsCollector
	tracer    trace.Tracer
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithMetrics attaches a metrics collector recording run and node
// level counters and latencies.
func WithMetrics(metrics ports.MetricsCollector) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// NewEngine creates an execution engine using the given handler
// registry and graph validator.
func NewEngine(registry ports.HandlerRegistry, validator *GraphValidator, opts ...EngineOption) *Engine {
	engine := &Engine{
		registry:  registry,
		validator: validator,
		tracer:    otel.Tracer("workflow-engine"),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Run executes one workflow test against a single input frame and
// returns the aggregated report.
//
// A structurally invalid graph fails up front with a
// *domain.ValidationError and zero node executions. Once execution
// starts, node failures never surface as a returned error: they are
// recorded in the failing node's result, execution halts (fail-fast),
// the remaining nodes are reported as skipped, and the report's
// OverallSuccess is false. Cancelling the context fails the node that
// was about to run and skips the rest; the report still accounts for
// every node in the resolved order.
//
// The returned report is immutable and the run's working state is
// discarded before Run returns; nothing is shared between runs.
func (e *Engine) Run(ctx context.Context, workflow string, graph domain.Graph, input domain.RunInput) (domain.ExecutionReport, error) {
	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "engine.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("workflow.name", workflow),
			attribute.Int("workflow.nodes", len(graph.Nodes)),
		))
	defer span.End()

	if err := e.validator.Validate(workflow, graph); err != nil {
		span.RecordError(err)
		e.recordRunRejected(workflow)
		return domain.ExecutionReport{}, err
	}

	compiled, err := CompileHandlers(e.registry, graph)
	if err != nil {
		span.RecordError(err)
		return domain.ExecutionReport{}, fmt.Errorf("compiling handlers for %s: %w", workflow, err)
	}

	order, err := ResolveOrder(graph)
	if err != nil {
		span.RecordError(err)
		return domain.ExecutionReport{}, fmt.Errorf("resolving execution order for %s: %w", workflow, err)
	}

	exec := domain.NewExecutionContext(input)
	pruner := NewBranchPruner(graph)
	startedAt := time.Now()

	var failed, cancelled bool
	for _, nodeID := range order {
		node, _ := graph.NodeByID(nodeID)

		if cancelled || failed {
			reason := domain.SkipUpstreamFailure
			if cancelled {
				reason = domain.SkipRunCancelled
			}
			exec.Record(skippedResult(node, reason))
			continue
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			cancelled = true
			exec.Record(domain.NodeResult{
				NodeID: node.ID,
				Kind:   node.Kind,
				Status: domain.StatusFailed,
				Error:  fmt.Sprintf("run cancelled: %v", ctxErr),
			})
			continue
		}

		if !pruner.Reachable(exec, nodeID) {
			exec.MarkPruned(nodeID)
			exec.Record(skippedResult(node, domain.SkipBranchNotTaken))
			e.recordNode(node, domain.StatusSkipped, 0)
			continue
		}

		result := e.executeNode(ctx, node, compiled[nodeID], exec, pruner)
		exec.Record(result)
		e.recordNode(node, result.Status, result.DurationMs)

		if result.Failed() {
			if ctx.Err() != nil {
				cancelled = true
			} else {
				failed = true
			}
		}
	}

	report := domain.AggregateReport(runID, exec.Results(), startedAt, time.Now())
	e.recordRun(workflow, report)
	span.SetAttributes(
		attribute.Bool("run.success", report.OverallSuccess),
		attribute.Int64("run.duration_ms", report.TotalDurationMs),
	)
	return report, nil
}

// executeNode runs a single node through its handler and converts the
// outcome into a NodeResult. Handler errors are recovered here, never
// propagated: a failure belongs to the node's result.
func (e *Engine) executeNode(
	ctx context.Context,
	node domain.Node,
	handler ports.NodeHandler,
	exec *domain.ExecutionContext,
	pruner *BranchPruner,
) domain.NodeResult {
	ctx, span := e.tracer.Start(ctx, "engine.node",
		trace.WithAttributes(
			attribute.String("node.id", node.ID),
			attribute.String("node.kind", string(node.Kind)),
		))
	defer span.End()

	if handler == nil {
		err := fmt.Errorf("%w: %s", domain.ErrUnknownNodeKind, node.Kind)
		span.RecordError(err)
		return domain.NodeResult{
			NodeID: node.ID,
			Kind:   node.Kind,
			Status: domain.StatusFailed,
			Error:  err.Error(),
		}
	}

	state := &executionState{
		input:    exec.Input(),
		upstream: resolveUpstream(exec, pruner, node.ID),
	}

	start := time.Now()
	payload, err := handler.Execute(ctx, state)
	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		span.RecordError(err)
		return domain.NodeResult{
			NodeID:     node.ID,
			Kind:       node.Kind,
			Status:     domain.StatusFailed,
			DurationMs: durationMs,
			Error:      err.Error(),
		}
	}

	return domain.NodeResult{
		NodeID:     node.ID,
		Kind:       node.Kind,
		Status:     domain.StatusSuccess,
		DurationMs: durationMs,
		Payload:    payload,
	}
}

// resolveUpstream collects the node's upstream contributions by
// following its incoming followed edges, cloning each payload so
// handlers cannot mutate recorded results.
func resolveUpstream(exec *domain.ExecutionContext, pruner *BranchPruner, nodeID string) []domain.Upstream {
	edges := pruner.FollowedInEdges(exec, nodeID)
	if len(edges) == 0 {
		return nil
	}
	upstream := make([]domain.Upstream, 0, len(edges))
	for _, edge := range edges {
		result, ok := exec.Result(edge.Source)
		if !ok {
			continue
		}
		upstream = append(upstream, domain.Upstream{
			NodeID:  edge.Source,
			Kind:    result.Kind,
			Port:    edge.SourcePort,
			Payload: result.Payload.Clone(),
		})
	}
	return upstream
}

func skippedResult(node domain.Node, reason domain.SkipReason) domain.NodeResult {
	return domain.NodeResult{
		NodeID:     node.ID,
		Kind:       node.Kind,
		Status:     domain.StatusSkipped,
		SkipReason: reason,
	}
}

func (e *Engine) recordNode(node domain.Node, status domain.NodeStatus, durationMs int64) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{
		"kind":   string(node.Kind),
		"status": string(status),
	}
	e.metrics.RecordCounter("node_executions_total", 1, labels)
	if status != domain.StatusSkipped {
		e.metrics.RecordLatency("node_execution", time.Duration(durationMs)*time.Millisecond, labels)
	}
}

func (e *Engine) recordRun(workflow string, report domain.ExecutionReport) {
	if e.metrics == nil {
		return
	}
	labels := map[string]string{
		"workflow": workflow,
		"success":  fmt.Sprintf("%t", report.OverallSuccess),
	}
	e.metrics.RecordCounter("workflow_runs_total", 1, labels)
	e.metrics.RecordLatency("workflow_run", time.Duration(report.TotalDurationMs)*time.Millisecond, labels)
}

func (e *Engine) recordRunRejected(workflow string) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordCounter("workflow_runs_rejected_total", 1, map[string]string{"workflow": workflow})
}
