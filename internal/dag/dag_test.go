package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/schema"
)

func buildChain(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, name := range []string{"raw_a", "fdp_b", "cdp_c"} {
		g.AddTable(schema.NewTable(name, layer.Classify(name)))
	}
	require.NoError(t, g.AddEdge("raw_a", "fdp_b"))
	require.NoError(t, g.AddEdge("fdp_b", "cdp_c"))
	return g
}

func TestGraph_AddEdge(t *testing.T) {
	g := buildChain(t)

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []string{"raw_a"}, g.Parents("fdp_b"))
	assert.Equal(t, []string{"cdp_c"}, g.Children("fdp_b"))
}

func TestGraph_AddEdge_Errors(t *testing.T) {
	g := New()
	g.AddExternal("a")

	assert.Error(t, g.AddEdge("a", "missing"))
	assert.Error(t, g.AddEdge("missing", "a"))
	assert.Error(t, g.AddEdge("a", "a"))
}

func TestGraph_DuplicateEdgesCollapsed(t *testing.T) {
	g := buildChain(t)
	require.NoError(t, g.AddEdge("raw_a", "fdp_b"))
	assert.Equal(t, 2, g.EdgeCount())
}

func TestGraph_ExternalUpgrade(t *testing.T) {
	g := New()
	g.AddExternal("raw_a")
	n, _ := g.Node("raw_a")
	assert.True(t, n.External())

	g.AddTable(schema.NewTable("raw_a", layer.Origination))
	n, _ = g.Node("raw_a")
	assert.False(t, n.External())
}

func TestGraph_DetectCycle(t *testing.T) {
	g := buildChain(t)
	cyclic, _ := g.DetectCycle()
	assert.False(t, cyclic)

	require.NoError(t, g.AddEdge("cdp_c", "raw_a"))
	cyclic, path := g.DetectCycle()
	assert.True(t, cyclic)
	require.NotEmpty(t, path)
	// The path closes on itself.
	assert.Equal(t, path[0], path[len(path)-1])
}

func TestGraph_TopoSort(t *testing.T) {
	g := buildChain(t)
	sorted, err := g.TopoSort()
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, n := range sorted {
		pos[n.ID] = i
	}
	assert.Less(t, pos["raw_a"], pos["fdp_b"])
	assert.Less(t, pos["fdp_b"], pos["cdp_c"])
}

func TestGraph_TopoSort_CycleError(t *testing.T) {
	g := buildChain(t)
	require.NoError(t, g.AddEdge("cdp_c", "raw_a"))
	_, err := g.TopoSort()
	assert.ErrorContains(t, err, "cycle")
}

func TestGraph_Levels(t *testing.T) {
	g := buildChain(t)
	g.AddExternal("raw_x")
	require.NoError(t, g.AddEdge("raw_x", "fdp_b"))

	levels, err := g.Levels()
	require.NoError(t, err)
	require.Len(t, levels, 3)
	assert.Equal(t, []string{"raw_a", "raw_x"}, levels[0])
	assert.Equal(t, []string{"fdp_b"}, levels[1])
	assert.Equal(t, []string{"cdp_c"}, levels[2])
}

func TestGraph_UpstreamDownstream(t *testing.T) {
	g := buildChain(t)

	assert.Equal(t, []string{"fdp_b", "raw_a"}, g.Upstream("cdp_c", 0))
	assert.Equal(t, []string{"fdp_b"}, g.Upstream("cdp_c", 1))
	assert.Equal(t, []string{"cdp_c", "fdp_b"}, g.Downstream("raw_a", 0))
	assert.Equal(t, []string{"fdp_b"}, g.Downstream("raw_a", 1))
	assert.Empty(t, g.Upstream("raw_a", 0))
}
