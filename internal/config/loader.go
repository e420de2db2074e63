package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// maxUpwardSearchLevels limits how far up the directory tree to search
// for a config file.
const maxUpwardSearchLevels = 10

var configFileUsed string

// FileUsed returns the config file the last Load call read, if any.
func FileUsed() string {
	return configFileUsed
}

func configExistsIn(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// findProjectRootUpward searches upward from startDir for a layerline
// config file. Returns empty when nothing is found within
// maxUpwardSearchLevels.
func findProjectRootUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if configExistsIn(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// inferProjectRoot determines the project root: the explicit config
// file's directory if given, else the nearest ancestor holding a
// layerline config, else the current working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
	}
	if cwd, err := os.Getwd(); err == nil {
		if root := findProjectRootUpward(cwd); root != "" {
			return root
		}
		return cwd
	}
	return "."
}

func resolveRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Load loads configuration from defaults, an optional config file,
// LAYERLINE_-prefixed environment variables, and CLI flags, in
// increasing precedence.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")
	configFileUsed = ""

	projectRoot := inferProjectRoot(cfgFile)

	// 1. Defaults.
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"catalog_path": DefaultCatalogFile,
		"output_dir":   DefaultOutputDir,
		"pipeline":     DefaultPipeline,
		"output":       DefaultOutput,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file, explicit or discovered in the project root.
	if cfgFile == "" {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(projectRoot, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
			configFileUsed = cfgFile
		}
	}

	// 3. Environment variables: LAYERLINE_CATALOG_PATH -> catalog_path.
	if err := k.Load(env.Provider("LAYERLINE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "LAYERLINE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, highest precedence. Only explicitly set flags apply.
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI flag is --catalog for brevity; the config key is
			// catalog_path.
			if key == "catalog" {
				return "catalog_path", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = projectRoot
	cfg.CatalogPath = resolveCatalogPath(cfg.CatalogPath, projectRoot)
	cfg.OutputDir = resolveRelativeTo(cfg.OutputDir, projectRoot)
	return &cfg, nil
}

// resolveCatalogPath resolves the catalog path against the project
// root, preserving the :memory: sentinel.
func resolveCatalogPath(path, projectRoot string) string {
	if path == ":memory:" {
		return path
	}
	return resolveRelativeTo(path, projectRoot)
}
