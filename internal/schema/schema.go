// Package schema defines the table metadata model shared by the
// mapping parser, graph builder, renderers, and catalog.
package schema

import "github.com/layerline-io/layerline/internal/layer"

// DefaultColumns seed every synthesized table, in this order.
var DefaultColumns = []string{"id", "created_at", "updated_at"}

// DefaultPrimaryKey is the primary key assigned to synthesized tables.
var DefaultPrimaryKey = []string{"id"}

// Table is the unit of output: one named table on one architectural
// layer, with an ordered column list and its upstream source
// references. Identity is the target name (case-sensitive).
type Table struct {
	// ID is the deterministic synthetic identifier,
	// "<layer-prefix>-<name>".
	ID      string
	Name    string
	Layer   layer.Layer
	Columns []string
	// PrimaryKey columns. Not validated as a subset of Columns; noisy
	// input may name keys the parser never saw as columns.
	PrimaryKey []string
	Sources    []*SourceReference
}

// SourceReference describes one upstream table a target table is fed
// from, with the field-level mappings that connect them. It is owned by
// exactly one Table.
type SourceReference struct {
	// SourceTable is the referenced upstream name. It may not resolve
	// to a parsed Table when malformed input names an unknown upstream.
	SourceTable string
	Mappings    []FieldMapping
}

// FieldMapping is one source-field to target-field correspondence,
// with an optional transformation expression.
type FieldMapping struct {
	SourceField    string
	TargetField    string
	Transformation string
}

// NewTable creates a table with the default column seed and primary
// key, plus any extra columns appended in encounter order.
func NewTable(name string, l layer.Layer, extraColumns ...string) *Table {
	t := &Table{
		ID:         l.Prefix() + "-" + name,
		Name:       name,
		Layer:      l,
		Columns:    append([]string(nil), DefaultColumns...),
		PrimaryKey: append([]string(nil), DefaultPrimaryKey...),
	}
	for _, c := range extraColumns {
		t.AddColumn(c)
	}
	return t
}

// HasColumn reports whether the table already has the named column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column unless it is already present, preserving
// insertion order. Returns true if the column was added.
func (t *Table) AddColumn(name string) bool {
	if name == "" || t.HasColumn(name) {
		return false
	}
	t.Columns = append(t.Columns, name)
	return true
}

// Source returns the source reference for the named upstream table,
// creating it if absent. References keep creation order.
func (t *Table) Source(sourceTable string) *SourceReference {
	for _, s := range t.Sources {
		if s.SourceTable == sourceTable {
			return s
		}
	}
	s := &SourceReference{SourceTable: sourceTable}
	t.Sources = append(t.Sources, s)
	return s
}

// AddMapping appends a field mapping unless one with the same target
// field already exists. Returns true if the mapping was added.
func (s *SourceReference) AddMapping(m FieldMapping) bool {
	for _, existing := range s.Mappings {
		if existing.TargetField == m.TargetField {
			return false
		}
	}
	s.Mappings = append(s.Mappings, m)
	return true
}

// MappingCount returns the total number of field mappings attached to
// the table across all source references.
func (t *Table) MappingCount() int {
	n := 0
	for _, s := range t.Sources {
		n += len(s.Mappings)
	}
	return n
}

// Summary aggregates parse results for reporting.
type Summary struct {
	// TablesPerLayer counts tables by layer.
	TablesPerLayer map[layer.Layer]int
	// MappingRows is the total number of mapping rows processed.
	MappingRows int
}
