package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/layerline-io/layerline/internal/lineage"
	"github.com/layerline-io/layerline/internal/render"
	"github.com/layerline-io/layerline/internal/schema"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Watch bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render SQL models, tests, and orchestration artifacts",
		Long: `Render build artifacts from cataloged tables, or directly from a
mapping file when one is given.

Artifacts written to the output directory:
  models/<table>.sql   one SQL model per table
  tests.yml            column test manifest (not_null and unique on keys)
  pipeline.yml         staged orchestration graph in dependency order`,
		Example: `  # Render artifacts from the catalog
  layerline render

  # Render straight from a mapping file, skipping the catalog
  layerline render mappings.csv

  # Re-render whenever the mapping file changes
  layerline render mappings.csv --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runRenderCmd(cmd, path, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch the mapping file and re-render on change")

	return cmd
}

func runRenderCmd(cmd *cobra.Command, path string, opts *RenderOptions) error {
	c := NewCommandContext(cmd)

	if opts.Watch && path == "" {
		return fmt.Errorf("--watch requires a mapping file argument")
	}

	if err := renderOnce(c, path); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}
	return watchAndRender(cmd, c, path)
}

// renderOnce loads tables from the mapping file or the catalog and
// writes all artifacts.
func renderOnce(c *CommandContext, path string) error {
	tables, err := loadTables(c, path)
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		c.Renderer.Warn("Nothing to render: no tables found.")
		return nil
	}

	outDir := c.Cfg.OutputDir
	modelsDir := filepath.Join(outDir, "models")
	if err := os.MkdirAll(modelsDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for _, t := range tables {
		sql, err := render.SQLModel(t)
		if err != nil {
			return fmt.Errorf("failed to render model %s: %w", t.Name, err)
		}
		target := filepath.Join(modelsDir, t.Name+".sql")
		if err := os.WriteFile(target, []byte(sql), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", target, err)
		}
	}

	tests, err := render.TestManifest(tables)
	if err != nil {
		return fmt.Errorf("failed to render test manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "tests.yml"), tests, 0644); err != nil {
		return fmt.Errorf("failed to write tests.yml: %w", err)
	}

	graph := lineage.BuildGraph(tables)
	orchestration, err := render.Orchestration(c.Cfg.Pipeline, graph)
	if err != nil {
		return fmt.Errorf("failed to render orchestration: %w", err)
	}
	if err := os.WriteFile(filepath.Join(outDir, "pipeline.yml"), orchestration, 0644); err != nil {
		return fmt.Errorf("failed to write pipeline.yml: %w", err)
	}

	c.Renderer.Success(fmt.Sprintf("Rendered %d model(s), tests.yml, and pipeline.yml to %s", len(tables), outDir))
	return nil
}

func loadTables(c *CommandContext, path string) ([]*schema.Table, error) {
	if path == "" {
		store, err := c.openCatalog()
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		defer func() { _ = store.Close() }()
		tables, err := store.List()
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}
		return tables, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	result, err := c.Engine.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return result.Tables, nil
}

// watchAndRender re-renders on every write to the mapping file until
// the command context is canceled. Some editors replace the file on
// save, so the parent directory is watched and events filtered by
// name.
func watchAndRender(cmd *cobra.Command, c *CommandContext, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	c.Renderer.Muted(fmt.Sprintf("Watching %s (Ctrl-C to stop)", path))
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := renderOnce(c, path); err != nil {
				c.Renderer.Warn(err.Error())
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "error", err)
		}
	}
}
