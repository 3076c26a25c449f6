package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// requireKeys returns an error naming every key absent from the JSON object
// in data.
func requireKeys(model string, data []byte, keys ...string) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	var missing []string
	for _, k := range keys {
		if v, ok := obj[k]; !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing required field(s): %s", model, strings.Join(missing, ", "))
	}
	return nil
}

// presentKeys returns the set of top-level keys of the JSON object in data.
func presentKeys(data []byte) (map[string]bool, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(obj))
	for k := range obj {
		set[k] = true
	}
	return set, nil
}

// canonicalize renames alias keys of the JSON object in data to their
// canonical names. A canonical key already present wins over its alias.
func canonicalize(data []byte, aliases map[string]string) ([]byte, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	changed := false
	for alias, canon := range aliases {
		v, ok := obj[alias]
		if !ok {
			continue
		}
		delete(obj, alias)
		if _, exists := obj[canon]; !exists {
			obj[canon] = v
		}
		changed = true
	}
	if !changed {
		return data, nil
	}
	return json.Marshal(obj)
}

// decodeExtra decodes data into v, a pointer to a struct, and stores every
// member v does not declare in extra.
func decodeExtra(data []byte, v any, extra *map[string]any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for _, k := range jsonKeys(reflect.TypeOf(v).Elem()) {
		delete(obj, k)
	}
	if len(obj) > 0 {
		*extra = obj
	} else {
		*extra = nil
	}
	return nil
}

// encodeExtra encodes v and merges the extra members that v does not
// already set.
func encodeExtra(v any, extra map[string]any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, ok := obj[k]; !ok {
			obj[k] = val
		}
	}
	return json.Marshal(obj)
}

// jsonKeys returns the JSON member names declared by struct type t,
// including promoted fields of embedded structs.
func jsonKeys(t reflect.Type) []string {
	var keys []string
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				keys = append(keys, jsonKeys(ft)...)
				continue
			}
		}
		if name == "" {
			name = f.Name
		}
		keys = append(keys, name)
	}
	return keys
}

// errEmptyField builds a validation error for a blank required string.
func errEmptyField(model, field string) error {
	return fmt.Errorf("%s: %s must not be empty", model, field)
}

var errUnionNoMatch = errors.New("value matches none of the accepted shapes")
