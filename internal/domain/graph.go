// Package domain contains the core business entities for the workflow
// test-execution engine: the analytics graph model, detection data,
// geometry primitives, execution state, and run results.
//
// This package has no dependencies on infrastructure concerns,
// following hexagonal architecture principles. All types here are pure
// data and pure functions that can be tested in isolation.
package domain

// NodeKind identifies the behavior class of a workflow node.
// The set of kinds is closed; the engine dispatches execution by kind.
type NodeKind string

// Supported node kinds for analytics workflow graphs.
const (
	// KindVideoSource introduces a frame from a camera or stream into
	// the run. Every executable workflow starts from one.
	KindVideoSource NodeKind = "videoSource"

	// KindAlgorithm invokes a detection algorithm on the current frame
	// and stores the returned detections.
	KindAlgorithm NodeKind = "algorithm"

	// KindCondition evaluates a predicate over upstream results and
	// routes the run through its "true" or "false" output port.
	KindCondition NodeKind = "condition"

	// KindFunction computes a transformation over upstream detections,
	// such as selecting the best detection or deriving a metric.
	KindFunction NodeKind = "function"

	// KindRoiFilter restricts detections to a region of interest,
	// either by masking before detection or filtering after it.
	KindRoiFilter NodeKind = "roiFilter"

	// KindAlert evaluates alert trigger logic. During test runs no
	// notification is delivered; the outcome is recorded in the payload.
	KindAlert NodeKind = "alert"

	// KindRecord declares a recording intent. During test runs no
	// footage is written; the intent is recorded in the payload.
	KindRecord NodeKind = "record"
)

// AllNodeKinds returns every supported node kind in a stable order.
func AllNodeKinds() []NodeKind {
	return []NodeKind{
		KindVideoSource,
		KindAlgorithm,
		KindCondition,
		KindFunction,
		KindRoiFilter,
		KindAlert,
		KindRecord,
	}
}

// Valid reports whether the kind is one of the supported node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindVideoSource, KindAlgorithm, KindCondition, KindFunction,
		KindRoiFilter, KindAlert, KindRecord:
		return true
	}
	return false
}

// Condition output port names. Edges leaving a condition node carry one
// of these as their source port; the engine follows only the port the
// evaluated condition selected.
const (
	// PortYes is the output port taken when a condition evaluates true.
	PortYes = "yes"

	// PortNo is the output port taken when a condition evaluates false.
	PortNo = "no"
)

// Node is a single vertex of an analytics workflow graph.
// Its configuration is typed per kind and is validated before any
// execution takes place.
type Node struct {
	// ID uniquely identifies the node within its graph.
	ID string `json:"id"`

	// Kind selects the node's behavior and the concrete type of Config.
	Kind NodeKind `json:"kind"`

	// Config holds the kind-specific parameters for this node.
	// It is never nil on a validated graph.
	Config NodeConfig `json:"config"`
}

// Edge is a directed connection between two nodes. Data and control
// flow from Source to Target.
type Edge struct {
	// Source is the ID of the upstream node.
	Source string `json:"source"`

	// Target is the ID of the downstream node.
	Target string `json:"target"`

	// SourcePort selects a named output port on the source node.
	// It is empty for nodes with a single output; condition nodes emit
	// on PortYes or PortNo and downstream edges must name one.
	SourcePort string `json:"sourcePort,omitempty"`
}

// Graph is an analytics workflow assembled in the visual editor.
// Node and edge declaration order is preserved; the execution order
// resolver uses it to break ties deterministically.
type Graph struct {
	// Nodes lists the graph's vertices in declaration order.
	Nodes []Node `json:"nodes"`

	// Edges lists the graph's directed connections in declaration order.
	Edges []Edge `json:"edges"`
}

// NodeByID returns the first node with the given ID.
// The boolean result reports whether such a node exists.
func (g Graph) NodeByID(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodesOfKind returns all nodes of the given kind in declaration order.
func (g Graph) NodesOfKind(kind NodeKind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// OutEdges returns the edges leaving the given node in declaration order.
func (g Graph) OutEdges(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// InEdges returns the edges entering the given node in declaration order.
func (g Graph) InEdges(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}
