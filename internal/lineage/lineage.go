// Package lineage derives read-only lineage views from the table
// graph: the per-target upstream index and the dependency graph used
// for traversal and orchestration ordering.
package lineage

import (
	"github.com/layerline-io/layerline/internal/dag"
	"github.com/layerline-io/layerline/internal/schema"
)

// Index maps each target table name to the names of its direct
// upstream sources, in the order the source references were created.
// It is a pure projection of the table graph at the moment of
// derivation and is not kept live.
type Index map[string][]string

// BuildIndex derives the lineage index from parsed tables.
func BuildIndex(tables []*schema.Table) Index {
	idx := make(Index, len(tables))
	for _, t := range tables {
		sources := make([]string, 0, len(t.Sources))
		for _, s := range t.Sources {
			sources = append(sources, s.SourceTable)
		}
		idx[t.Name] = sources
	}
	return idx
}

// BuildGraph constructs the dependency graph for the parsed tables.
// Upstream names that never resolved to a parsed table become external
// placeholder nodes, so traversal still reaches them.
func BuildGraph(tables []*schema.Table) *dag.Graph {
	g := dag.New()
	for _, t := range tables {
		g.AddTable(t)
	}
	for _, t := range tables {
		for _, s := range t.Sources {
			g.AddExternal(s.SourceTable)
			// AddEdge only fails on self-references, which noisy input
			// can legitimately produce; those edges are dropped.
			_ = g.AddEdge(s.SourceTable, t.Name)
		}
	}
	return g
}
