// Package graph builds the deduplicated table graph from parsed table
// fragments and mapping rows.
package graph

import (
	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/mapping"
	"github.com/layerline-io/layerline/internal/schema"
)

// Registry owns the named-table map built during graph construction.
// All lookup-or-create goes through GetOrCreate, so default column
// seeding and duplicate suppression are enforced in one place instead
// of at every call site.
type Registry struct {
	byName map[string]*schema.Table
	order  []string
}

// NewRegistry creates an empty table registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*schema.Table)}
}

// GetOrCreate returns the table with the given name, creating it with
// the default column seed and primary key if absent. The layer applies
// only on creation: an existing table keeps the identity it was first
// declared with.
func (r *Registry) GetOrCreate(name string, l layer.Layer) *schema.Table {
	if t, ok := r.byName[name]; ok {
		return t
	}
	t := schema.NewTable(name, l)
	r.byName[name] = t
	r.order = append(r.order, name)
	return t
}

// Get returns the named table, if present.
func (r *Registry) Get(name string) (*schema.Table, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Tables returns all tables in creation order.
func (r *Registry) Tables() []*schema.Table {
	out := make([]*schema.Table, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of tables in the registry.
func (r *Registry) Len() int {
	return len(r.order)
}

// Build merges mapping rows and explicit table fragments into a
// deduplicated table registry.
//
// Fragments are lowered first, so an explicitly declared table wins its
// identity (layer, default columns) even when a later row references
// the same name; rows only ever add columns and mappings. Rows are then
// applied in input order: both endpoint tables are ensured, the row's
// fields are appended to their tables' column lists if new, and a field
// mapping is attached to the target's source reference unless one with
// the same target field already exists there.
func Build(rows []mapping.Row, fragments []*mapping.Fragment) *Registry {
	r := NewRegistry()

	for _, f := range fragments {
		t := r.GetOrCreate(f.Name, f.Layer)
		for _, fld := range f.Fields {
			t.AddColumn(fld)
		}
	}

	for _, row := range rows {
		target := r.GetOrCreate(row.TargetTable, row.TargetLayer)
		source := r.GetOrCreate(row.SourceTable, row.SourceLayer)

		target.AddColumn(row.TargetField)
		source.AddColumn(row.SourceField)

		ref := target.Source(row.SourceTable)
		ref.AddMapping(schema.FieldMapping{
			SourceField:    row.SourceField,
			TargetField:    row.TargetField,
			Transformation: row.Transformation,
		})
	}

	return r
}
