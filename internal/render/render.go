// Package render mechanically turns the parsed table graph into
// textual artifacts: SQL model templates, a YAML test-configuration
// manifest, and an orchestration-graph template. Rendering is string
// work only; nothing here talks to a warehouse.
package render

import (
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/layerline-io/layerline/internal/dag"
	"github.com/layerline-io/layerline/internal/schema"
)

// sqlModelTemplate renders one table as a SQL model skeleton. Tables
// with upstream sources become a SELECT from their first source, with
// every additional source joined in as a commented block for the author
// to complete; source-less tables become a plain DDL skeleton.
var sqlModelTemplate = template.Must(template.New("sql_model").Funcs(template.FuncMap{
	"selectExpr": selectExpr,
	"plus1":      func(i int) int { return i + 1 },
}).Parse(`-- {{ .Name }} ({{ .Layer.Label }} layer)
-- Generated from mapping metadata; review before use.
{{- if .Sources }}

CREATE OR REPLACE TABLE {{ .Name }} AS
SELECT
{{- $ref := index .Sources 0 }}
{{- range $i, $m := $ref.Mappings }}
    {{ selectExpr $m }}{{ if ne (plus1 $i) (len $ref.Mappings) }},{{ end }}
{{- end }}
FROM {{ $ref.SourceTable }};
{{- range $extra := slice .Sources 1 }}

-- Additional source: {{ $extra.SourceTable }}
{{- range $m := $extra.Mappings }}
--   {{ selectExpr $m }}
{{- end }}
{{- end }}
{{- else }}

CREATE TABLE IF NOT EXISTS {{ .Name }} (
{{- range $i, $c := .Columns }}
    {{ $c }}{{ if ne (plus1 $i) (len $.Columns) }},{{ end }}
{{- end }}
);
{{- end }}
`))

// selectExpr renders one field mapping as a SELECT list expression.
func selectExpr(m schema.FieldMapping) string {
	expr := m.SourceField
	if m.Transformation != "" {
		expr = m.Transformation
	}
	if expr == m.TargetField {
		return expr
	}
	return fmt.Sprintf("%s AS %s", expr, m.TargetField)
}

// SQLModel renders the SQL model template for one table.
func SQLModel(t *schema.Table) (string, error) {
	var b strings.Builder
	if err := sqlModelTemplate.Execute(&b, t); err != nil {
		return "", fmt.Errorf("failed to render SQL model for %s: %w", t.Name, err)
	}
	return b.String(), nil
}

// Test-manifest document shapes, dbt-style.
type manifest struct {
	Version int             `yaml:"version"`
	Models  []manifestModel `yaml:"models"`
}

type manifestModel struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description,omitempty"`
	Columns     []manifestColumn `yaml:"columns"`
}

type manifestColumn struct {
	Name  string   `yaml:"name"`
	Tests []string `yaml:"tests,omitempty"`
}

// TestManifest renders the YAML test-configuration manifest for the
// given tables. Primary-key columns get not_null and unique tests;
// other columns are listed without tests so authors can extend them.
func TestManifest(tables []*schema.Table) ([]byte, error) {
	doc := manifest{Version: 2}
	for _, t := range tables {
		m := manifestModel{
			Name:        t.Name,
			Description: fmt.Sprintf("%s layer table", t.Layer.Label()),
		}
		pk := make(map[string]bool, len(t.PrimaryKey))
		for _, k := range t.PrimaryKey {
			pk[k] = true
		}
		for _, c := range t.Columns {
			col := manifestColumn{Name: c}
			if pk[c] {
				col.Tests = []string{"not_null", "unique"}
			}
			m.Columns = append(m.Columns, col)
		}
		doc.Models = append(doc.Models, m)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test manifest: %w", err)
	}
	return out, nil
}

// Orchestration pipeline shapes.
type pipeline struct {
	Pipeline string          `yaml:"pipeline"`
	Stages   []pipelineStage `yaml:"stages"`
}

type pipelineStage struct {
	Stage int            `yaml:"stage"`
	Tasks []pipelineTask `yaml:"tasks"`
}

type pipelineTask struct {
	Table     string   `yaml:"table"`
	Layer     string   `yaml:"layer,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
	External  bool     `yaml:"external,omitempty"`
}

// Orchestration renders the orchestration-graph template: tables
// grouped into stages by dependency level, each task listing its direct
// upstream tables. Returns an error when the lineage is cyclic, since
// no execution order exists then.
func Orchestration(name string, g *dag.Graph) ([]byte, error) {
	levels, err := g.Levels()
	if err != nil {
		return nil, err
	}

	doc := pipeline{Pipeline: name}
	for i, ids := range levels {
		stage := pipelineStage{Stage: i + 1}
		for _, id := range ids {
			task := pipelineTask{Table: id, DependsOn: g.Parents(id)}
			if node, ok := g.Node(id); ok {
				if node.External() {
					task.External = true
				} else {
					task.Layer = string(node.Table.Layer)
				}
			}
			stage.Tasks = append(stage.Tasks, task)
		}
		doc.Stages = append(doc.Stages, stage)
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal orchestration graph: %w", err)
	}
	return out, nil
}
