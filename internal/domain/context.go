package domain

// RunInput is the caller-supplied input for one test run: the frame to
// execute against and, optionally, its raw image bytes. When ImageBytes
// is empty the detection service fetches the image via Frame.ImageRef.
type RunInput struct {
	// Frame identifies and describes the input frame.
	Frame FrameRef `json:"frame"`

	// ImageBytes optionally carries the raw encoded image.
	ImageBytes []byte `json:"-"`
}

// Upstream is one upstream node's contribution to a downstream node's
// inputs, resolved by the executor by following the node's incoming
// followed edges. The payload is a clone; handlers may not mutate
// earlier nodes' outputs.
type Upstream struct {
	// NodeID identifies the upstream node.
	NodeID string

	// Kind is the upstream node's kind.
	Kind NodeKind

	// Port is the source port of the connecting edge, empty for nodes
	// with a single implicit output.
	Port string

	// Payload is a clone of the upstream node's output payload.
	Payload Payload
}

// ExecutionContext is the ephemeral working state of one test run.
// It holds the run input, the results of nodes executed so far, and the
// set of nodes pruned by branch decisions. A context is created fresh
// for every run, is confined to the run's goroutine, and is discarded
// once the report has been aggregated. Nothing survives between runs.
type ExecutionContext struct {
	input   RunInput
	results map[string]NodeResult
	order   []string
	pruned  map[string]struct{}
}

// NewExecutionContext creates the working state for a single test run.
func NewExecutionContext(input RunInput) *ExecutionContext {
	return &ExecutionContext{
		input:   input,
		results: make(map[string]NodeResult),
		pruned:  make(map[string]struct{}),
	}
}

// Input returns the run's input.
func (c *ExecutionContext) Input() RunInput { return c.input }

// Record stores a node's terminal result. Recording the same node twice
// keeps the first result; every node reaches exactly one terminal state.
func (c *ExecutionContext) Record(result NodeResult) {
	if _, exists := c.results[result.NodeID]; exists {
		return
	}
	c.results[result.NodeID] = result
	c.order = append(c.order, result.NodeID)
}

// Result returns the recorded result for a node, if any.
func (c *ExecutionContext) Result(nodeID string) (NodeResult, bool) {
	r, ok := c.results[nodeID]
	return r, ok
}

// Results returns all recorded results in recording order. The slice
// is a copy; mutating it does not affect the context.
func (c *ExecutionContext) Results() []NodeResult {
	out := make([]NodeResult, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.results[id])
	}
	return out
}

// MarkPruned records that a node was excluded by branch pruning.
func (c *ExecutionContext) MarkPruned(nodeID string) {
	c.pruned[nodeID] = struct{}{}
}

// Pruned reports whether a node was excluded by branch pruning.
func (c *ExecutionContext) Pruned(nodeID string) bool {
	_, ok := c.pruned[nodeID]
	return ok
}

// Active reports whether a node executed successfully, making its
// output available to downstream nodes. Failed, skipped, and
// not-yet-executed nodes are not active.
func (c *ExecutionContext) Active(nodeID string) bool {
	r, ok := c.results[nodeID]
	return ok && r.Succeeded()
}
