// Package config provides project configuration for layerline,
// loaded from defaults, a YAML config file, environment variables, and
// CLI flags, in increasing precedence.
package config

// Config holds the resolved project configuration.
type Config struct {
	// ProjectRoot is the directory all relative paths resolve against.
	ProjectRoot string `koanf:"-"`

	// CatalogPath is the path to the SQLite table catalog.
	CatalogPath string `koanf:"catalog_path"`

	// OutputDir is where rendered artifacts are written.
	OutputDir string `koanf:"output_dir"`

	// Pipeline is the name used in rendered orchestration graphs.
	Pipeline string `koanf:"pipeline"`

	// OutputFormat selects CLI output rendering: auto, text, markdown,
	// or json.
	OutputFormat string `koanf:"output"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`
}
