package formatting

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

func (f *YAMLFormatter) write(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	_, err = f.options.Out.Write(data)
	return err
}

// FormatTable writes rows as a YAML sequence of mappings.
func (f *YAMLFormatter) FormatTable(t Table) error {
	return f.write(rowsAsMaps(t))
}

// FormatDocument converts JSON bodies to YAML. XML and other bodies are
// written unchanged.
func (f *YAMLFormatter) FormatDocument(body []byte) error {
	v, ok := decodeBody(body)
	if !ok {
		_, err := fmt.Fprintln(f.options.Out, PrettyBody(body))
		return err
	}
	return f.write(yamlSafe(v))
}

// FormatData writes v as YAML using its JSON field names.
func (f *YAMLFormatter) FormatData(v any) error {
	g, err := toGeneric(v)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	return f.write(yamlSafe(g))
}

// yamlSafe replaces json.Number, which yaml.v3 would quote, with plain
// numbers.
func yamlSafe(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = yamlSafe(val)
		}
		return x
	case []any:
		for i, val := range x {
			x[i] = yamlSafe(val)
		}
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	default:
		return x
	}
}
