package application

import (
	"github.com/ahrav/go-vigil/internal/domain"
)

// BranchPruner decides which nodes an in-progress run can still reach.
// After a condition node executes, only edges on its taken port carry
// flow; a node is pruned when no followed path leads to it.
//
// Reachability is computed over the edge set filtered by taken ports,
// not by node-kind heuristics, so branch/merge graphs of any shape
// behave correctly: a node reachable through both a followed and a
// not-followed path still executes, and pruning propagates through
// entire untaken subgraphs.
//
// Because the executor consults the pruner at each node's turn in
// topological order, every upstream node has already reached a terminal
// state by the time its edges are inspected.
type BranchPruner struct {
	graph domain.Graph
}

// NewBranchPruner creates a pruner for one graph.
func NewBranchPruner(graph domain.Graph) *BranchPruner {
	return &BranchPruner{graph: graph}
}

// EdgeFollowed reports whether data flowed across the edge in this run.
// An edge is followed when its source executed successfully and, for
// condition sources, the edge sits on the port the condition took.
// Edges leaving pruned, skipped, or failed nodes are never followed.
func (p *BranchPruner) EdgeFollowed(exec *domain.ExecutionContext, edge domain.Edge) bool {
	if !exec.Active(edge.Source) {
		return false
	}
	source, ok := p.graph.NodeByID(edge.Source)
	if !ok {
		return false
	}
	if source.Kind != domain.KindCondition {
		return true
	}
	result, ok := exec.Result(edge.Source)
	if !ok || result.Payload.Condition == nil {
		return false
	}
	return result.Payload.Condition.TakenPort == edge.SourcePort
}

// Reachable reports whether the node can still be reached at its turn
// in the execution order. Nodes without incoming edges are always
// reachable; every other node needs at least one followed incoming
// edge.
func (p *BranchPruner) Reachable(exec *domain.ExecutionContext, nodeID string) bool {
	inEdges := p.graph.InEdges(nodeID)
	if len(inEdges) == 0 {
		return true
	}
	for _, edge := range inEdges {
		if p.EdgeFollowed(exec, edge) {
			return true
		}
	}
	return false
}

// FollowedInEdges returns the node's incoming edges that carried flow,
// in declaration order. The executor resolves a node's upstream inputs
// from exactly these edges.
func (p *BranchPruner) FollowedInEdges(exec *domain.ExecutionContext, nodeID string) []domain.Edge {
	var followed []domain.Edge
	for _, edge := range p.graph.InEdges(nodeID) {
		if p.EdgeFollowed(exec, edge) {
			followed = append(followed, edge)
		}
	}
	return followed
}
