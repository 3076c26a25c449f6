package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest decodes the YAML or JSON file at path into v.
func LoadRequest(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest decodes data into v. The filename extension selects the
// decoder; without a known extension YAML is tried, then JSON.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return decodeAs("YAML", yaml.Unmarshal, data, v)
	case ".json":
		return decodeAs("JSON", json.Unmarshal, data, v)
	}
	if yaml.Unmarshal(data, v) == nil || json.Unmarshal(data, v) == nil {
		return nil
	}
	return errors.New("failed to parse file (tried YAML and JSON)")
}

func decodeAs(kind string, unmarshal func([]byte, any) error, data []byte, v any) error {
	if err := unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", kind, err)
	}
	return nil
}

// LoadArguments reads a mapping of argument names to values from path, or
// from stdin when path is "-", and returns it as key=value pairs sorted by
// key. String values are passed through; any other value is encoded as
// JSON.
func LoadArguments(path string, stdin io.Reader) ([]string, error) {
	var args map[string]any
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		if err := ParseRequest(data, "", &args); err != nil {
			return nil, err
		}
	} else if err := LoadRequest(path, &args); err != nil {
		return nil, err
	}

	pairs := make([]string, 0, len(args))
	for _, k := range slices.Sorted(maps.Keys(args)) {
		switch v := args[k].(type) {
		case string:
			pairs = append(pairs, k+"="+v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", k, err)
			}
			pairs = append(pairs, k+"="+string(data))
		}
	}
	return pairs, nil
}
