package formatting

import (
	"fmt"
	"strings"
)

// ConsoleFormatter provides simple console output formatting
type ConsoleFormatter struct {
	options Options
}

// FormatTable prints one numbered line per row.
func (f *ConsoleFormatter) FormatTable(t Table) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(f.options.Out, "No items found.")
		return err
	}

	var output []string
	if !f.options.Quiet && t.Title != "" {
		output = append(output, fmt.Sprintf("%s (%d):", t.Title, len(t.Rows)))
	}
	for i, row := range t.Rows {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, cell(v))
		}
		if f.options.Quiet {
			output = append(output, strings.Join(cells, "\t"))
			continue
		}
		output = append(output, fmt.Sprintf("  %d. %s", i+1, strings.Join(cells, "  ")))
	}
	_, err := fmt.Fprintln(f.options.Out, strings.Join(output, "\n"))
	return err
}

// FormatDocument prints the body, indenting JSON.
func (f *ConsoleFormatter) FormatDocument(body []byte) error {
	_, err := fmt.Fprintln(f.options.Out, PrettyBody(body))
	return err
}

// FormatData prints v as indented JSON.
func (f *ConsoleFormatter) FormatData(v any) error {
	_, err := fmt.Fprintln(f.options.Out, PrettyJSON(v))
	return err
}
