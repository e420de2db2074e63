package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/layerline-io/layerline/internal/cli/output"
	"github.com/layerline-io/layerline/internal/dag"
	"github.com/layerline-io/layerline/internal/lineage"
)

// LineageOptions holds options for the lineage command.
type LineageOptions struct {
	Upstream   bool
	Downstream bool
	Depth      int
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	opts := &LineageOptions{}

	cmd := &cobra.Command{
		Use:   "lineage <table>",
		Short: "Show lineage for a cataloged table",
		Long: `Display the upstream sources and downstream consumers of a table.

Lineage is computed from the source references recorded in the catalog.
Source tables that were never cataloged themselves appear as external
nodes.`,
		Example: `  # Full lineage for a table
  layerline lineage fdp_customer

  # Only upstream sources
  layerline lineage fdp_customer --downstream=false

  # Limit traversal depth
  layerline lineage fdp_customer --depth 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineageCmd(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Upstream, "upstream", true, "Include upstream sources")
	cmd.Flags().BoolVar(&opts.Downstream, "downstream", true, "Include downstream consumers")
	cmd.Flags().IntVar(&opts.Depth, "depth", 0, "Max traversal depth (0 = unlimited)")

	return cmd
}

func runLineageCmd(cmd *cobra.Command, name string, opts *LineageOptions) error {
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

	graph := lineage.BuildGraph(tables)
	node, ok := graph.Node(name)
	if !ok {
		return fmt.Errorf("table not found in catalog: %s", name)
	}

	var upstream, downstream []string
	if opts.Upstream {
		upstream = graph.Upstream(name, opts.Depth)
	}
	if opts.Downstream {
		downstream = graph.Downstream(name, opts.Depth)
	}

	if c.Renderer.EffectiveMode() == output.ModeJSON {
		return c.Renderer.JSON(map[string]any{
			"table":      name,
			"external":   node.External(),
			"upstream":   upstream,
			"downstream": downstream,
		})
	}

	c.Renderer.Header(1, "Lineage: "+name)
	if node.Table != nil {
		c.Renderer.Muted(fmt.Sprintf("Layer: %s", node.Table.Layer.Label()))
	}

	if opts.Upstream {
		c.Renderer.Println("")
		c.Renderer.Header(2, "Upstream")
		printNodeList(c, graph, upstream, "No upstream sources.")
	}
	if opts.Downstream {
		c.Renderer.Println("")
		c.Renderer.Header(2, "Downstream")
		printNodeList(c, graph, downstream, "No downstream consumers.")
	}
	return nil
}

func printNodeList(c *CommandContext, graph *dag.Graph, names []string, empty string) {
	if len(names) == 0 {
		c.Renderer.Muted(empty)
		return
	}
	for _, n := range names {
		label := n
		if node, ok := graph.Node(n); ok && node.External() {
			label += " (external)"
		}
		c.Renderer.Println("  " + label)
	}
}
