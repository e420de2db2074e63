package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/layerline-io/layerline/internal/cli/output"
	"github.com/layerline-io/layerline/internal/layer"
)

// ListOptions holds options for the list command.
type ListOptions struct {
	Layer string
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cataloged tables",
		Long: `List the tables in the catalog, ordered by data-layer and name.`,
		Example: `  # List everything
  layerline list

  # Only foundational tables
  layerline list --layer foundational

  # Machine-readable output
  layerline list -o json`,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Layer, "layer", "", "Filter by layer (origination|foundational|consumption)")

	return cmd
}

func runList(cmd *cobra.Command, opts *ListOptions) error {
	c := NewCommandContext(cmd)

	store, err := c.openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	tables, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list tables: %w", err)
	}

	if opts.Layer != "" {
		want := layer.Layer(strings.ToLower(opts.Layer))
		filtered := tables[:0]
		for _, t := range tables {
			if t.Layer == want {
				filtered = append(filtered, t)
			}
		}
		tables = filtered
	}

	if c.Renderer.EffectiveMode() == output.ModeJSON {
		return c.Renderer.JSON(tables)
	}

	if len(tables) == 0 {
		c.Renderer.Muted("Catalog is empty. Run `layerline import` to add tables.")
		return nil
	}

	rows := make([][]string, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, []string{
			t.Name,
			t.Layer.Label(),
			strconv.Itoa(len(t.Columns)),
			strings.Join(t.PrimaryKey, ", "),
			strings.Join(sourceNames(t), ", "),
		})
	}
	c.Renderer.Table([]string{"Table", "Layer", "Columns", "Primary Key", "Sources"}, rows)
	c.Renderer.Muted(fmt.Sprintf("%d table(s)", len(tables)))
	return nil
}
