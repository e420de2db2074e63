// Package commands implements the layerline subcommands.
package commands

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/layerline-io/layerline/internal/catalog"
	"github.com/layerline-io/layerline/internal/cli/output"
	"github.com/layerline-io/layerline/internal/config"
	"github.com/layerline-io/layerline/internal/engine"
)

// Package-level state installed by the root command before any
// subcommand runs.
var (
	currentConfig *config.Config
	currentLogger *slog.Logger
)

// Setup installs the loaded configuration and logger for subcommands.
func Setup(cfg *config.Config, logger *slog.Logger) {
	currentConfig = cfg
	currentLogger = logger
}

func getConfig() *config.Config {
	if currentConfig != nil {
		return currentConfig
	}
	return &config.Config{
		CatalogPath:  config.DefaultCatalogFile,
		OutputDir:    config.DefaultOutputDir,
		Pipeline:     config.DefaultPipeline,
		OutputFormat: config.DefaultOutput,
	}
}

func getLogger() *slog.Logger {
	if currentLogger != nil {
		return currentLogger
	}
	return slog.New(slog.DiscardHandler)
}

// CommandContext holds the common dependencies of a subcommand run.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext assembles the engine and renderer for a command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := getLogger()
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   engine.New(engine.Config{Logger: logger}),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

// openCatalog opens (and migrates) the catalog store, creating the
// parent directory for file-backed catalogs.
func (c *CommandContext) openCatalog() (*catalog.Store, error) {
	path := c.Cfg.CatalogPath
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, err
		}
	}
	store := catalog.NewStore(c.Logger)
	if err := store.Open(path); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}
