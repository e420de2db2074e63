// Package engine orchestrates one parse invocation: format detection,
// mapping extraction, table graph construction, and lineage derivation.
// The whole pipeline is synchronous and pure over its input; callers
// hand it a text blob and receive a fresh result with no shared state
// between invocations.
package engine

import (
	"log/slog"

	"github.com/layerline-io/layerline/internal/graph"
	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/lineage"
	"github.com/layerline-io/layerline/internal/mapping"
	"github.com/layerline-io/layerline/internal/schema"
)

// Result is the output of one parse invocation.
type Result struct {
	// Tables in creation order, each with a deterministic synthetic ID.
	Tables []*schema.Table
	// Lineage maps each target name to its direct upstream names.
	Lineage lineage.Index
	// Summary counts tables per layer and mapping rows processed.
	Summary schema.Summary
	// Format is the detected input format.
	Format mapping.Format
}

// Config holds engine configuration.
type Config struct {
	// Logger is the structured logger (optional, discards if nil).
	Logger *slog.Logger
}

// Engine runs mapping-ingestion parses. It carries no state between
// invocations beyond its logger.
type Engine struct {
	logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{logger: logger}
}

// Parse converts one raw mapping text blob into a table graph with
// lineage. It returns mapping.ErrUnrecognizedInput when nothing at all
// could be extracted; any partially recognized input succeeds, and it
// is up to the caller to present the summary for verification before
// import.
func (e *Engine) Parse(content string) (*Result, error) {
	format := mapping.DetectFormat(content)
	e.logger.Debug("detected input format", "format", format, "bytes", len(content))

	fragments, rows, err := mapping.Extract(content)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("extraction complete", "fragments", len(fragments), "rows", len(rows))

	registry := graph.Build(rows, fragments)
	tables := registry.Tables()

	result := &Result{
		Tables:  tables,
		Lineage: lineage.BuildIndex(tables),
		Summary: summarize(tables, len(rows)),
		Format:  format,
	}
	e.logger.Debug("parse complete",
		"tables", len(tables),
		"mapping_rows", result.Summary.MappingRows)
	return result, nil
}

// Parse runs a one-off parse with a discarding logger.
func Parse(content string) (*Result, error) {
	return New(Config{}).Parse(content)
}

func summarize(tables []*schema.Table, rowCount int) schema.Summary {
	s := schema.Summary{
		TablesPerLayer: make(map[layer.Layer]int),
		MappingRows:    rowCount,
	}
	for _, t := range tables {
		s.TablesPerLayer[t.Layer]++
	}
	return s
}
