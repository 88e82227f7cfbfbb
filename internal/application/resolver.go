package application

import (
	"fmt"

	"github.com/ahrav/go-vigil/internal/domain"
)

// ResolveOrder computes the execution order for a validated graph
// using Kahn's algorithm over edge direction. Among nodes that are
// simultaneously ready (in-degree zero), graph declaration order wins,
// so the resulting order is fully deterministic: the same graph always
// yields the same sequence, a property the report consumers and the
// branch pruner both rely on.
//
// The returned order contains every node exactly once. An error is
// returned only if the graph contains a cycle, which validation should
// have rejected earlier.
func ResolveOrder(graph domain.Graph) ([]string, error) {
	inDegree := make(map[string]int, len(graph.Nodes))
	for _, node := range graph.Nodes {
		if _, seen := inDegree[node.ID]; !seen {
			inDegree[node.ID] = 0
		}
	}
	for _, edge := range graph.Edges {
		if _, ok := inDegree[edge.Source]; !ok {
			continue
		}
		if _, ok := inDegree[edge.Target]; !ok {
			continue
		}
		inDegree[edge.Target]++
	}

	order := make([]string, 0, len(graph.Nodes))
	emitted := make(map[string]struct{}, len(graph.Nodes))

	for len(order) < len(inDegree) {
		progressed := false
		// Scanning declaration order and taking the first ready node
		// is what makes tie-breaking deterministic.
		for _, node := range graph.Nodes {
			if _, done := emitted[node.ID]; done {
				continue
			}
			if inDegree[node.ID] != 0 {
				continue
			}
			emitted[node.ID] = struct{}{}
			order = append(order, node.ID)
			for _, edge := range graph.OutEdges(node.ID) {
				if _, ok := inDegree[edge.Target]; ok {
					inDegree[edge.Target]--
				}
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("cannot resolve execution order: graph contains a cycle")
		}
	}
	return order, nil
}
