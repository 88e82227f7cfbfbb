// Package application orchestrates workflow test execution: graph
// validation, execution order resolution, branch pruning, node
// dispatch, and report aggregation. It depends on the domain model and
// the ports interfaces, with handler implementations supplied through
// the handler registry.
package application

import (
	"fmt"

	"github.com/ahrav/go-vigil/internal/domain"
)

// GraphValidator checks that a workflow graph is executable before any
// node runs. Validation is a pure function over the graph: it has no
// side effects and touches no external services. All problems found are
// reported together in a single domain.ValidationError so the editor
// can highlight everything at once.
type GraphValidator struct {
	// catalog resolves algorithm identifiers. A nil catalog skips
	// resolvability checks, deferring them to the detection service.
	catalog *AlgorithmCatalog
}

// NewGraphValidator creates a validator. The catalog may be nil when no
// algorithm inventory is available at validation time.
func NewGraphValidator(catalog *AlgorithmCatalog) *GraphValidator {
	return &GraphValidator{catalog: catalog}
}

// Validate checks the graph's structural invariants: presence of video
// source and algorithm nodes, unique node ids, known kinds, no dangling
// edges, condition port rules, acyclicity, and per-kind configuration
// validity. It returns nil for a valid graph and a
// *domain.ValidationError listing every problem otherwise.
func (v *GraphValidator) Validate(entity string, graph domain.Graph) error {
	var issues []domain.ValidationIssue

	issues = append(issues, v.checkNodes(graph)...)
	issues = append(issues, v.checkKindPresence(graph)...)
	issues = append(issues, v.checkEdges(graph)...)
	issues = append(issues, v.checkAcyclic(graph)...)
	issues = append(issues, v.checkConfigs(graph)...)

	if len(issues) == 0 {
		return nil
	}
	return domain.NewValidationError(entity, issues)
}

// checkNodes verifies node ids are unique and kinds are known.
func (v *GraphValidator) checkNodes(graph domain.Graph) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	seen := make(map[string]struct{}, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if node.ID == "" {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueDuplicateNodeID,
				Message: "node id cannot be empty",
			})
			continue
		}
		if _, dup := seen[node.ID]; dup {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueDuplicateNodeID,
				NodeID:  node.ID,
				Message: fmt.Sprintf("node id %q is used more than once", node.ID),
			})
		}
		seen[node.ID] = struct{}{}

		if !node.Kind.Valid() {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueUnknownNodeKind,
				NodeID:  node.ID,
				Message: fmt.Sprintf("kind %q is not supported", node.Kind),
			})
		}
	}
	return issues
}

// checkKindPresence verifies the graph has at least one video source
// and at least one algorithm node.
func (v *GraphValidator) checkKindPresence(graph domain.Graph) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	if len(graph.NodesOfKind(domain.KindVideoSource)) == 0 {
		issues = append(issues, domain.ValidationIssue{
			Code:    domain.IssueMissingVideoSource,
			Message: "graph has no video source node",
		})
	}
	if len(graph.NodesOfKind(domain.KindAlgorithm)) == 0 {
		issues = append(issues, domain.ValidationIssue{
			Code:    domain.IssueMissingAlgorithm,
			Message: "graph has no algorithm node",
		})
	}
	return issues
}

// checkEdges verifies every edge references existing nodes and that
// condition output ports follow the port rules: edges leaving a
// condition must name the "yes" or "no" port, with at most one edge
// per port.
func (v *GraphValidator) checkEdges(graph domain.Graph) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	for _, edge := range graph.Edges {
		if _, ok := graph.NodeByID(edge.Source); !ok {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueDanglingEdge,
				Message: fmt.Sprintf("edge references nonexistent source node %q", edge.Source),
			})
		}
		if _, ok := graph.NodeByID(edge.Target); !ok {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueDanglingEdge,
				Message: fmt.Sprintf("edge references nonexistent target node %q", edge.Target),
			})
		}
	}

	for _, node := range graph.Nodes {
		if node.Kind != domain.KindCondition {
			continue
		}
		perPort := make(map[string]int)
		for _, edge := range graph.OutEdges(node.ID) {
			switch edge.SourcePort {
			case domain.PortYes, domain.PortNo:
				perPort[edge.SourcePort]++
			default:
				issues = append(issues, domain.ValidationIssue{
					Code:   domain.IssueInvalidConditionPort,
					NodeID: node.ID,
					Message: fmt.Sprintf("edge to %q must use port %q or %q, got %q",
						edge.Target, domain.PortYes, domain.PortNo, edge.SourcePort),
				})
			}
		}
		for port, count := range perPort {
			if count > 1 {
				issues = append(issues, domain.ValidationIssue{
					Code:    domain.IssueConditionPortConflict,
					NodeID:  node.ID,
					Message: fmt.Sprintf("port %q has %d outgoing edges, at most one is allowed", port, count),
				})
			}
		}
	}
	return issues
}

// checkAcyclic rejects graphs containing a directed cycle, which would
// make execution order undefined. Detection uses depth-first search
// with three-color node marking (white, gray, black); a gray neighbor
// is a back edge and therefore a cycle. Every node is used as a start
// so cycles in disconnected islands are found too.
func (v *GraphValidator) checkAcyclic(graph domain.Graph) []domain.ValidationIssue {
	adjacency := make(map[string][]string, len(graph.Nodes))
	for _, edge := range graph.Edges {
		_, srcOK := graph.NodeByID(edge.Source)
		_, tgtOK := graph.NodeByID(edge.Target)
		if srcOK && tgtOK {
			adjacency[edge.Source] = append(adjacency[edge.Source], edge.Target)
		}
	}

	// White (0): unvisited, Gray (1): visiting, Black (2): visited.
	colors := make(map[string]int, len(graph.Nodes))

	var dfs func(nodeID string) bool
	dfs = func(nodeID string) bool {
		colors[nodeID] = 1 // gray
		for _, neighbor := range adjacency[nodeID] {
			if colors[neighbor] == 1 { // gray, back edge found
				return true
			}
			if colors[neighbor] == 0 && dfs(neighbor) {
				return true
			}
		}
		colors[nodeID] = 2 // black
		return false
	}

	for _, node := range graph.Nodes {
		if colors[node.ID] == 0 && dfs(node.ID) {
			return []domain.ValidationIssue{{
				Code:    domain.IssueCycleDetected,
				NodeID:  node.ID,
				Message: fmt.Sprintf("cycle detected on a path through node %q", node.ID),
			}}
		}
	}
	return nil
}

// checkConfigs validates each node's kind-specific configuration,
// including algorithm resolvability and function metric arity.
func (v *GraphValidator) checkConfigs(graph domain.Graph) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	for _, node := range graph.Nodes {
		if !node.Kind.Valid() {
			continue // already reported by checkNodes
		}
		if node.Config == nil {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueInvalidConfig,
				NodeID:  node.ID,
				Message: "node has no configuration",
			})
			continue
		}
		if node.Config.Kind() != node.Kind {
			issues = append(issues, domain.ValidationIssue{
				Code:   domain.IssueInvalidConfig,
				NodeID: node.ID,
				Message: fmt.Sprintf("configuration is for kind %q, node is %q",
					node.Config.Kind(), node.Kind),
			})
			continue
		}

		if err := ValidateNodeConfig(node.Config); err != nil {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueInvalidConfig,
				NodeID:  node.ID,
				Message: err.Error(),
			})
			continue
		}

		issues = append(issues, v.checkSemantics(graph, node)...)
	}
	return issues
}

// checkSemantics applies graph-aware config checks that a per-struct
// validation cannot express.
func (v *GraphValidator) checkSemantics(graph domain.Graph, node domain.Node) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	switch cfg := node.Config.(type) {
	case domain.AlgorithmConfig:
		if v.catalog == nil {
			break
		}
		if _, err := v.catalog.Resolve(cfg.AlgorithmID); err != nil {
			issues = append(issues, domain.ValidationIssue{
				Code:    domain.IssueUnresolvableAlgorithm,
				NodeID:  node.ID,
				Message: err.Error(),
			})
		}
	case domain.FunctionConfig:
		arity := cfg.Metric.Arity()
		inputs := 0
		for _, edge := range graph.InEdges(node.ID) {
			source, ok := graph.NodeByID(edge.Source)
			if !ok {
				continue
			}
			if source.Kind == domain.KindAlgorithm || source.Kind == domain.KindRoiFilter {
				inputs++
			}
		}
		if inputs < arity {
			issues = append(issues, domain.ValidationIssue{
				Code:   domain.IssueFunctionArity,
				NodeID: node.ID,
				Message: fmt.Sprintf("metric %q needs %d detection input(s), node has %d",
					cfg.Metric, arity, inputs),
			})
		}
	}
	return issues
}
