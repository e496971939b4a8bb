package cli

import "github.com/jedib0t/go-pretty/v6/text"

// FormatError formats an error message for CLI output.
func FormatError(err error) string {
	return text.FgRed.Sprintf("Error: %v", err)
}

// FormatSuccess formats a success message for CLI output.
func FormatSuccess(msg string) string {
	return text.FgGreen.Sprint("✓ ") + msg
}

// FormatWarning formats a warning message for CLI output.
func FormatWarning(msg string) string {
	return text.FgYellow.Sprint("⚠ ") + msg
}
