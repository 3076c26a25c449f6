package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

// OutputFormat names a result encoding.
type OutputFormat string

const (
	// FormatYAML encodes with goccy/go-yaml, keeping struct field order.
	FormatYAML OutputFormat = "yaml"
	// FormatJSON encodes as 2-space indented JSON without HTML escaping.
	FormatJSON OutputFormat = "json"
	// FormatTable renders a Tabular result as a bordered table.
	FormatTable OutputFormat = "table"
)

type encodeFunc func(w io.Writer, result any) error

var encoders = map[OutputFormat]encodeFunc{
	FormatYAML:  encodeYAML,
	FormatJSON:  encodeJSON,
	FormatTable: outputTable,
}

// Formats lists every supported format.
func Formats() []OutputFormat {
	return []OutputFormat{FormatTable, FormatJSON, FormatYAML}
}

// ParseFormat parses s case-insensitively. When allowed is non-empty, only
// those formats are accepted.
func ParseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	if len(allowed) == 0 {
		allowed = Formats()
	}
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if slices.Contains(allowed, f) {
		return f, nil
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", fmt.Errorf("unsupported output format %q (choose from %s)", s, strings.Join(names, ", "))
}

// OutputOptions configures Output.
type OutputOptions struct {
	// Format defaults to YAML when empty.
	Format OutputFormat

	// Writer defaults to stdout when nil.
	Writer io.Writer
}

// Output encodes result in the requested format.
func Output(result any, opts OutputOptions) error {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = FormatYAML
	}

	encode, ok := encoders[format]
	if !ok {
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return encode(w, result)
}

func encodeJSON(w io.Writer, result any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func encodeYAML(w io.Writer, result any) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	_, err = w.Write(data)
	return err
}
