// Package formatting renders command output for the eve CLI.
//
// Three shapes are printed: tables of list rows, raw API documents (JSON or
// XML bodies as returned by the server), and arbitrary Go values such as
// session status. Each OutputFormat renders all three.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console" // Simple console output
	FormatJSON    OutputFormat = "json"    // JSON output
	FormatYAML    OutputFormat = "yaml"    // YAML output
	FormatTable   OutputFormat = "table"   // Rich table output
)

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
	Color  bool // Enable colored output
	// Out receives the rendered output. Defaults to os.Stdout.
	Out io.Writer
}

// Table is a list result: a header row and any number of value rows.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]any
}

// Formatter renders command results.
type Formatter interface {
	// FormatTable renders list results.
	FormatTable(t Table) error
	// FormatDocument renders a response body as returned by the API.
	FormatDocument(body []byte) error
	// FormatData renders a Go value.
	FormatData(v any) error
}

// ParseFormat validates a --output flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json, yaml or console)", s)
	}
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	if options.Out == nil {
		options.Out = os.Stdout
	}
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options}
	case FormatYAML:
		return &YAMLFormatter{options: options}
	case FormatTable:
		return &TableFormatter{options: options}
	case FormatConsole:
		fallthrough
	default:
		return &ConsoleFormatter{options: options}
	}
}
