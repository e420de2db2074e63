package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layerline-io/layerline/internal/cli/output"
	"github.com/layerline-io/layerline/internal/engine"
	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/mapping"
	"github.com/layerline-io/layerline/internal/schema"
)

// ParseOptions holds options for the parse command.
type ParseOptions struct {
	ShowMappings bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a mapping file and show the resulting tables",
		Long: `Parse a CSV mapping file or a diagram transcription and display the
tables, columns, and field-level lineage it produces.

The input format is detected automatically. Nothing is written to the
catalog; use the import command once the output looks right.`,
		Example: `  # Parse a CSV mapping file
  layerline parse mappings.csv

  # Parse a whiteboard transcription from stdin
  cat transcript.txt | layerline parse -

  # Include per-field mappings in the output
  layerline parse mappings.csv --mappings

  # Machine-readable output
  layerline parse mappings.csv -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowMappings, "mappings", false, "Show field-level mappings per table")

	return cmd
}

func runParse(cmd *cobra.Command, path string, opts *ParseOptions) error {
	c := NewCommandContext(cmd)

	content, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	result, err := c.Engine.Parse(content)
	if err != nil {
		if errors.Is(err, mapping.ErrUnrecognizedInput) {
			c.Renderer.Warn("Nothing recognized: the input contains no table declarations or field mappings.")
			c.Renderer.Muted("Expected a CSV header starting with source_table, or transcript lines like \"ODP: orders\" and \"order_id -> id\".")
			return err
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if c.Renderer.EffectiveMode() == output.ModeJSON {
		return c.Renderer.JSON(newParseReport(result))
	}

	c.Renderer.Header(1, "Parse Result")
	c.Renderer.Printf("Format: %s\n", result.Format)
	c.Renderer.Printf("Tables: %d  Mapping rows: %d\n", len(result.Tables), result.Summary.MappingRows)
	c.Renderer.Println("")

	rows := make([][]string, 0, len(result.Tables))
	for _, t := range result.Tables {
		rows = append(rows, []string{
			t.Name,
			t.Layer.Label(),
			strconv.Itoa(len(t.Columns)),
			strconv.Itoa(t.MappingCount()),
			strings.Join(sourceNames(t), ", "),
		})
	}
	c.Renderer.Table([]string{"Table", "Layer", "Columns", "Mappings", "Sources"}, rows)

	for _, l := range layer.All() {
		if n := result.Summary.TablesPerLayer[l]; n > 0 {
			c.Renderer.Muted(fmt.Sprintf("%s: %d table(s)", l.Label(), n))
		}
	}

	if opts.ShowMappings {
		printMappings(c.Renderer, result.Tables)
	}

	c.Renderer.Println("")
	c.Renderer.Success("Parse complete. Review the tables above, then run `layerline import` to merge them into the catalog.")
	return nil
}

func printMappings(r *output.Renderer, tables []*schema.Table) {
	for _, t := range tables {
		if len(t.Sources) == 0 {
			continue
		}
		r.Println("")
		r.Header(2, t.Name)
		rows := [][]string{}
		for _, src := range t.Sources {
			for _, m := range src.Mappings {
				transformation := m.Transformation
				if transformation == "" {
					transformation = "-"
				}
				rows = append(rows, []string{src.SourceTable, m.SourceField, m.TargetField, transformation})
			}
		}
		r.Table([]string{"Source Table", "Source Field", "Target Field", "Transformation"}, rows)
	}
}

// parseReport is the JSON shape of a parse result.
type parseReport struct {
	Format  string              `json:"format"`
	Tables  []*schema.Table     `json:"tables"`
	Counts  map[string]int      `json:"tables_per_layer"`
	Rows    int                 `json:"mapping_rows"`
	Lineage map[string][]string `json:"lineage"`
}

func newParseReport(result *engine.Result) parseReport {
	counts := make(map[string]int, len(result.Summary.TablesPerLayer))
	for l, n := range result.Summary.TablesPerLayer {
		counts[string(l)] = n
	}
	return parseReport{
		Format:  string(result.Format),
		Tables:  result.Tables,
		Counts:  counts,
		Rows:    result.Summary.MappingRows,
		Lineage: result.Lineage,
	}
}

func sourceNames(t *schema.Table) []string {
	names := make([]string, 0, len(t.Sources))
	for _, src := range t.Sources {
		names = append(names, src.SourceTable)
	}
	return names
}

// readInput reads a mapping file, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
