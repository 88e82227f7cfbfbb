package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-vigil/internal/domain"
	"github.com/ahrav/go-vigil/internal/testutils"
)

func TestResolveOrder_LinearGraph(t *testing.T) {
	order, err := ResolveOrder(testutils.LinearGraph())
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "detect", "gate", "alarm"}, order)
}

func TestResolveOrder_DeclarationOrderBreaksTies(t *testing.T) {
	// Both detectors become ready once the source is emitted; the one
	// declared first must run first even though "detect-b" sorts lower.
	graph := domain.Graph{
		Nodes: []domain.Node{
			testutils.VideoSourceNode("source", "camera-1"),
			testutils.AlgorithmNode("detect-b", "vehicle-v1"),
			testutils.AlgorithmNode("detect-a", "person-v2"),
		},
		Edges: []domain.Edge{
			testutils.E("source", "detect-b"),
			testutils.E("source", "detect-a"),
		},
	}

	order, err := ResolveOrder(graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "detect-b", "detect-a"}, order)
}

func TestResolveOrder_DiamondRespectsDependencies(t *testing.T) {
	// source fans out to two detectors that merge into one condition. The
	// condition must come last regardless of declaration position.
	graph := domain.Graph{
		Nodes: []domain.Node{
			testutils.ConditionNode("gate", domain.CompareAtLeast, 1),
			testutils.VideoSourceNode("source", "camera-1"),
			testutils.AlgorithmNode("detect-a", "person-v2"),
			testutils.AlgorithmNode("detect-b", "vehicle-v1"),
		},
		Edges: []domain.Edge{
			testutils.E("source", "detect-a"),
			testutils.E("source", "detect-b"),
			testutils.E("detect-a", "gate"),
			testutils.E("detect-b", "gate"),
		},
	}

	order, err := ResolveOrder(graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "detect-a", "detect-b", "gate"}, order)
}

func TestResolveOrder_IsDeterministic(t *testing.T) {
	graph := testutils.BranchGraph()

	first, err := ResolveOrder(graph)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := ResolveOrder(graph)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestResolveOrder_ContainsEveryNodeOnce(t *testing.T) {
	graph := testutils.BranchGraph()

	order, err := ResolveOrder(graph)
	require.NoError(t, err)
	require.Len(t, order, len(graph.Nodes))

	seen := make(map[string]int)
	for _, id := range order {
		seen[id]++
	}
	for _, node := range graph.Nodes {
		assert.Equal(t, 1, seen[node.ID], "node %q", node.ID)
	}
}

func TestResolveOrder_IgnoresEdgesToUnknownNodes(t *testing.T) {
	// A dangling edge must not wedge the in-degree bookkeeping. Validation
	// rejects such graphs, but the resolver stays robust on its own.
	graph := domain.Graph{
		Nodes: []domain.Node{
			testutils.VideoSourceNode("source", "camera-1"),
			testutils.AlgorithmNode("detect", "person-v2"),
		},
		Edges: []domain.Edge{
			testutils.E("source", "detect"),
			testutils.E("ghost", "detect"),
			testutils.E("detect", "phantom"),
		},
	}

	order, err := ResolveOrder(graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"source", "detect"}, order)
}

func TestResolveOrder_CycleFails(t *testing.T) {
	graph := domain.Graph{
		Nodes: []domain.Node{
			testutils.AlgorithmNode("detect-a", "person-v2"),
			testutils.AlgorithmNode("detect-b", "vehicle-v1"),
		},
		Edges: []domain.Edge{
			testutils.E("detect-a", "detect-b"),
			testutils.E("detect-b", "detect-a"),
		},
	}

	order, err := ResolveOrder(graph)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "graph contains a cycle")
	assert.Nil(t, order)
}

func TestResolveOrder_EmptyGraph(t *testing.T) {
	order, err := ResolveOrder(domain.Graph{})
	require.NoError(t, err)
	assert.Empty(t, order)
}
