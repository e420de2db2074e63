// Package mapping implements the mapping-ingestion engine: a heuristic
// parser that converts loosely structured text (CSV rows or free-form
// diagram transcripts, typically OCR-derived or hand-typed) into table
// fragments and field-level mapping rows.
//
// Input is assumed to be noisy. Lines that match nothing are dropped
// silently; the only failure is a whole-input one, when extraction
// yields nothing at all (ErrUnrecognizedInput).
package mapping

import "github.com/layerline-io/layerline/internal/layer"

// DefaultDataType is assigned to mapping rows that carry no explicit
// data type.
const DefaultDataType = "STRING"

// Row is the atomic unit produced by parsing one line of input: a
// single source-field to target-field correspondence. Rows are consumed
// once by the graph builder and then discarded.
type Row struct {
	SourceTable    string
	SourceField    string
	TargetTable    string
	TargetField    string
	DataType       string
	Transformation string
	SourceLayer    layer.Layer
	TargetLayer    layer.Layer
}

// Fragment is an explicitly declared table header from diagram-style
// input: a name, a layer, and the ordered field names accumulated under
// it, before being lowered into a full table.
type Fragment struct {
	Name   string
	Layer  layer.Layer
	Fields []string
}

func (f *Fragment) hasField(name string) bool {
	for _, fld := range f.Fields {
		if fld == name {
			return true
		}
	}
	return false
}

// addField appends a field unless the fragment already carries it, so
// re-mentioned fields accumulate idempotently.
func (f *Fragment) addField(name string) {
	if !f.hasField(name) {
		f.Fields = append(f.Fields, name)
	}
}
