package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/layerline-io/layerline/internal/cli/output"
	"github.com/layerline-io/layerline/internal/engine"
	"github.com/layerline-io/layerline/internal/mapping"
	"github.com/layerline-io/layerline/internal/schema"
)

// ImportOptions holds options for the import command.
type ImportOptions struct {
	DryRun bool
}

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	opts := &ImportOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>...",
		Short: "Parse mapping files and merge them into the catalog",
		Long: `Parse one or more mapping files and merge the resulting tables into
the catalog database.

Table names are matched case-insensitively against the catalog; a table
that already exists is skipped and the cataloged definition wins. Files
are parsed in parallel and merged in argument order.`,
		Example: `  # Import a CSV mapping file
  layerline import mappings.csv

  # Import several transcripts at once
  layerline import day1.txt day2.txt day3.txt

  # Parse everything without touching the catalog
  layerline import mappings.csv --dry-run`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Parse only, do not write to the catalog")

	return cmd
}

func runImport(cmd *cobra.Command, paths []string, opts *ImportOptions) error {
	c := NewCommandContext(cmd)

	results := make([]*engine.Result, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			result, err := c.Engine.Parse(string(data))
			if err != nil {
				if errors.Is(err, mapping.ErrUnrecognizedInput) {
					return fmt.Errorf("%s: %w", path, err)
				}
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Merge in argument order so collisions resolve deterministically.
	var tables []*schema.Table
	for i, result := range results {
		c.Logger.Debug("parsed mapping file",
			"path", paths[i], "format", result.Format, "tables", len(result.Tables))
		tables = append(tables, result.Tables...)
	}

	if opts.DryRun {
		c.Renderer.Printf("Dry run: %d table(s) parsed from %d file(s), catalog untouched.\n",
			len(tables), len(paths))
		return nil
	}

	store, err := c.openCatalog()
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	imported, err := store.Import(tables)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}

	if c.Renderer.EffectiveMode() == output.ModeJSON {
		return c.Renderer.JSON(map[string]any{
			"imported": imported.Imported,
			"skipped":  imported.Skipped,
			"catalog":  c.Cfg.CatalogPath,
		})
	}

	c.Renderer.Success(fmt.Sprintf("Imported %d table(s) into %s", len(imported.Imported), c.Cfg.CatalogPath))
	if len(imported.Skipped) > 0 {
		c.Renderer.Warn(fmt.Sprintf("Skipped %d already-cataloged table(s): %s",
			len(imported.Skipped), strings.Join(imported.Skipped, ", ")))
	}
	return nil
}
