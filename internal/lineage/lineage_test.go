package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/schema"
)

func TestBuildIndex(t *testing.T) {
	target := schema.NewTable("cdp_metrics", layer.Consumption)
	target.Source("fdp_orders").AddMapping(schema.FieldMapping{SourceField: "amount", TargetField: "total"})
	target.Source("fdp_customers")
	plain := schema.NewTable("raw_events", layer.Origination)

	idx := BuildIndex([]*schema.Table{target, plain})

	assert.Equal(t, []string{"fdp_orders", "fdp_customers"}, idx["cdp_metrics"])
	assert.Empty(t, idx["raw_events"])
	assert.Len(t, idx, 2)
}

func TestBuildGraph(t *testing.T) {
	source := schema.NewTable("raw_orders", layer.Origination)
	target := schema.NewTable("fdp_orders", layer.Foundational)
	target.Source("raw_orders")
	// An upstream name with no parsed table behind it.
	target.Source("raw_legacy_feed")

	g := BuildGraph([]*schema.Table{source, target})

	assert.Equal(t, 3, g.NodeCount())
	assert.ElementsMatch(t, []string{"raw_orders", "raw_legacy_feed"}, g.Parents("fdp_orders"))

	legacy, ok := g.Node("raw_legacy_feed")
	require.True(t, ok)
	assert.True(t, legacy.External())

	resolved, ok := g.Node("raw_orders")
	require.True(t, ok)
	assert.False(t, resolved.External())
}

func TestBuildGraph_SelfReferenceDropped(t *testing.T) {
	tbl := schema.NewTable("fdp_loop", layer.Foundational)
	tbl.Source("fdp_loop")

	g := BuildGraph([]*schema.Table{tbl})
	assert.Equal(t, 0, g.EdgeCount())
}
