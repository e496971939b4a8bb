package formatting

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	evestrings "eve/pkg/strings"
)

const maxCellWidth = 100

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(f.options.Out)
	t.SetStyle(table.StyleRounded)
	return t
}

func (f *TableFormatter) header(s string) string {
	if f.options.Color {
		return text.FgHiCyan.Sprint(s)
	}
	return s
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(message string) string {
	if f.options.Color {
		return text.FgYellow.Sprint(message)
	}
	return message
}

// FormatTable renders rows with a total footer.
func (f *TableFormatter) FormatTable(tbl Table) error {
	if len(tbl.Rows) == 0 {
		_, err := fmt.Fprintln(f.options.Out, f.formatEmptyMessage("No items found"))
		return err
	}

	t := f.createTable()
	if tbl.Title != "" && !f.options.Quiet {
		t.SetTitle(tbl.Title)
	}
	headers := make(table.Row, 0, len(tbl.Headers))
	for _, h := range tbl.Headers {
		headers = append(headers, f.header(h))
	}
	t.AppendHeader(headers)

	for _, row := range tbl.Rows {
		r := make(table.Row, 0, len(row))
		for _, v := range row {
			r = append(r, evestrings.TruncateLine(cell(v), maxCellWidth))
		}
		t.AppendRow(r)
	}
	if !f.options.Quiet {
		t.AppendFooter(table.Row{"Total", len(tbl.Rows)})
	}
	t.Render()
	return nil
}

// FormatDocument renders a JSON object as KEY/VALUE rows. Arrays and
// non-JSON bodies are printed as text.
func (f *TableFormatter) FormatDocument(body []byte) error {
	v, ok := decodeBody(body)
	if !ok {
		_, err := fmt.Fprintln(f.options.Out, PrettyBody(body))
		return err
	}
	return f.formatValue(v)
}

// FormatData renders v as KEY/VALUE rows when it is a struct or map.
func (f *TableFormatter) FormatData(v any) error {
	g, err := toGeneric(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	return f.formatValue(g)
}

func (f *TableFormatter) formatValue(v any) error {
	obj, ok := v.(map[string]any)
	if !ok {
		_, err := fmt.Fprintln(f.options.Out, PrettyJSON(v))
		return err
	}

	// A single-key wrapper such as {"policy": {...}} is unwrapped.
	if len(obj) == 1 {
		for key, inner := range obj {
			if m, ok := inner.(map[string]any); ok {
				return f.formatObject(key, m)
			}
		}
	}
	return f.formatObject("", obj)
}

// formatObject formats object data as key-value pairs in key order.
func (f *TableFormatter) formatObject(title string, data map[string]any) error {
	t := f.createTable()
	if title != "" && !f.options.Quiet {
		t.SetTitle(title)
	}
	t.AppendHeader(table.Row{f.header("KEY"), f.header("VALUE")})

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AppendRow(table.Row{k, evestrings.TruncateLine(cell(data[k]), maxCellWidth)})
	}
	t.Render()
	return nil
}
