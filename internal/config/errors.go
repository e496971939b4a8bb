package config

import (
	"errors"
	"fmt"
)

// ErrNoServer is returned when no server was given and none is cached.
var ErrNoServer = errors.New("no server specified: pass --server or log in first")

// ConfigurationError describes a config.yaml that could not be used.
type ConfigurationError struct {
	FilePath  string `json:"filePath"`
	ErrorType string `json:"errorType"` // io, parse or validation
	Message   string `json:"message"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("config %s: %s error: %s", ce.FilePath, ce.ErrorType, ce.Message)
}
