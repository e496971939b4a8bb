package app

import (
	"io"

	"eve/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of config.yaml
	Debug bool

	// ConfigPath is the directory holding config.yaml
	ConfigPath string

	// Overrides adjusts the loaded configuration, for example from CLI
	// flags. It runs before ListenAddress and Debug are applied.
	Overrides func(*config.EveConfig)

	// ListenAddress overrides proxy.listenAddress when set
	ListenAddress string

	// WatchConfig reloads logging settings when config.yaml changes
	WatchConfig bool

	// Banner prints the startup banner to Out
	Banner bool
	Out    io.Writer
	// LogOutput receives log lines. Defaults to os.Stderr.
	LogOutput io.Writer

	// Loaded configuration, set by NewApplication
	EveConfig *config.EveConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, listenAddress string) *Config {
	return &Config{
		Debug:         debug,
		ConfigPath:    configPath,
		ListenAddress: listenAddress,
	}
}
