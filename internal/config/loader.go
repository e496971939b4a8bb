package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"eve/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/eve"
	configFileName = "config.yaml"
	tokenFileName  = "token.json"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// GetDefaultConfigPath returns ~/.config/eve.
func GetDefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// GetDefaultConfigPathOrPanic is GetDefaultConfigPath for flag defaults.
func GetDefaultConfigPathOrPanic() string {
	path, err := GetDefaultConfigPath()
	if err != nil {
		panic(err)
	}
	return path
}

// LoadConfig loads config.yaml from configPath on top of the defaults.
// A missing file is not an error.
func LoadConfig(configPath string) (EveConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	// #nosec G304 -- configPath is chosen by the user running the CLI
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return EveConfig{}, &ConfigurationError{FilePath: configFilePath, ErrorType: "io", Message: err.Error()}
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		cfgErr := &ConfigurationError{FilePath: configFilePath, ErrorType: "parse", Message: err.Error()}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			cfgErr.Message = typeErr.Errors[0]
		}
		return EveConfig{}, cfgErr
	}

	if errs := Validate(config); errs.HasErrors() {
		return EveConfig{}, &ConfigurationError{FilePath: configFilePath, ErrorType: "validation", Message: errs.Error()}
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// TokenFilePath returns the persisted token location for cfg: the configured
// tokenFile if set, otherwise token.json inside configPath.
func TokenFilePath(cfg EveConfig, configPath string) string {
	if cfg.Auth.TokenFile != "" {
		return expandHome(cfg.Auth.TokenFile)
	}
	return filepath.Join(configPath, tokenFileName)
}

// EnsureDir creates dir with owner-only permissions if it does not exist.
// An existing directory with wider permissions is tightened.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if info.Mode().Perm()&0077 != 0 {
		logging.Warn("ConfigLoader", "Tightening permissions on %s (was %o)", dir, info.Mode().Perm())
		if err := os.Chmod(dir, 0700); err != nil {
			return fmt.Errorf("failed to restrict %s: %w", dir, err)
		}
	}
	return nil
}

func expandHome(path string) string {
	if path == "~" || len(path) > 1 && path[:2] == "~/" {
		if home, err := osUserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
