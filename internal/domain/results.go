package domain

import "time"

// NodeStatus is the terminal state of a node within one test run.
// Every node in the resolved execution order ends in exactly one state.
type NodeStatus string

// Terminal node states.
const (
	// StatusSuccess means the node's handler completed successfully.
	StatusSuccess NodeStatus = "success"

	// StatusFailed means the node's handler returned an error. A failed
	// node halts the run; subsequent nodes are skipped.
	StatusFailed NodeStatus = "failed"

	// StatusSkipped means the node never ran, either because its branch
	// was not taken or because an earlier node failed.
	StatusSkipped NodeStatus = "skipped"
)

// SkipReason distinguishes why a skipped node never ran. The
// visualization layer renders pruned branches differently from nodes
// stranded by an upstream failure.
type SkipReason string

// Reasons a node can be skipped.
const (
	// SkipBranchNotTaken marks nodes reachable only through a condition
	// port the run did not take.
	SkipBranchNotTaken SkipReason = "branch_not_taken"

	// SkipUpstreamFailure marks nodes that never ran because an earlier
	// node in the execution order failed.
	SkipUpstreamFailure SkipReason = "upstream_failure"

	// SkipRunCancelled marks nodes that never ran because the caller
	// cancelled the run.
	SkipRunCancelled SkipReason = "run_cancelled"
)

// NodeResult is the outcome of one node within a test run.
type NodeResult struct {
	// NodeID identifies the node this result belongs to.
	NodeID string `json:"node_id"`

	// Kind is the node's kind, repeated here so report consumers need
	// not join against the graph.
	Kind NodeKind `json:"kind"`

	// Status is the node's terminal state.
	Status NodeStatus `json:"status"`

	// DurationMs is the node's execution time in milliseconds.
	// It is 0 for skipped nodes.
	DurationMs int64 `json:"duration_ms"`

	// Error holds the failure message when Status is StatusFailed.
	Error string `json:"error,omitempty"`

	// SkipReason explains a skip when Status is StatusSkipped.
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// Payload is the kind-specific output of the node. It is zero for
	// skipped nodes.
	Payload Payload `json:"payload"`
}

// Succeeded reports whether the node completed successfully.
func (r NodeResult) Succeeded() bool { return r.Status == StatusSuccess }

// Failed reports whether the node's handler returned an error.
func (r NodeResult) Failed() bool { return r.Status == StatusFailed }

// Skipped reports whether the node never ran.
func (r NodeResult) Skipped() bool { return r.Status == StatusSkipped }

// ExecutionReport is the aggregate outcome of one test run. It is
// created once per run and never mutated after being returned; the
// run's ExecutionContext is discarded as soon as the report exists.
type ExecutionReport struct {
	// RunID uniquely identifies this test run.
	RunID string `json:"run_id"`

	// OverallSuccess is true iff no node failed. Skipped nodes do not
	// count as failures.
	OverallSuccess bool `json:"overall_success"`

	// TotalDurationMs is the summed execution time of all non-skipped
	// nodes in milliseconds.
	TotalDurationMs int64 `json:"total_duration_ms"`

	// Results lists every node of the resolved execution order, in
	// execution order, including skipped nodes. Consumers must not
	// assume it matches graph declaration order.
	Results []NodeResult `json:"results"`

	// StartedAt records when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt records when the run completed.
	FinishedAt time.Time `json:"finished_at"`
}

// AggregateReport assembles the final report from per-node results.
// OverallSuccess is true iff no result failed; TotalDurationMs sums the
// durations of non-skipped nodes. The results slice is copied so the
// report cannot alias the executor's working memory.
func AggregateReport(runID string, results []NodeResult, startedAt, finishedAt time.Time) ExecutionReport {
	report := ExecutionReport{
		RunID:          runID,
		OverallSuccess: true,
		Results:        make([]NodeResult, len(results)),
		StartedAt:      startedAt,
		FinishedAt:     finishedAt,
	}
	copy(report.Results, results)
	for _, r := range results {
		if r.Failed() {
			report.OverallSuccess = false
		}
		if !r.Skipped() {
			report.TotalDurationMs += r.DurationMs
		}
	}
	return report
}
