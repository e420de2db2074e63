package config

// Default configuration values.
const (
	DefaultCatalogFile = ".layerline/catalog.db"
	DefaultOutputDir   = "artifacts"
	DefaultPipeline    = "layerline"
	DefaultOutput      = "auto"
)

// ConfigFileNames are the file names probed when locating the project
// config, in priority order.
var ConfigFileNames = []string{"layerline.yaml", "layerline.yml"}
