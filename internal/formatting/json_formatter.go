package formatting

import (
	"fmt"
)

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// FormatTable writes rows as an array of objects keyed by lowercased header.
func (f *JSONFormatter) FormatTable(t Table) error {
	_, err := fmt.Fprintln(f.options.Out, PrettyJSON(rowsAsMaps(t)))
	return err
}

// FormatDocument indents JSON bodies; other bodies are written as-is.
func (f *JSONFormatter) FormatDocument(body []byte) error {
	_, err := fmt.Fprintln(f.options.Out, PrettyBody(body))
	return err
}

// FormatData writes v as indented JSON.
func (f *JSONFormatter) FormatData(v any) error {
	_, err := fmt.Fprintln(f.options.Out, PrettyJSON(v))
	return err
}
