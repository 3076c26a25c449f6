package dispatch

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/itchyny/gojq"
)

// NoContentMessage is printed when a call returns no value.
const NoContentMessage = "Operation completed successfully (No content returned)."

// maxSanitizeDepth bounds the string-coercion walk; deeper values are
// treated as unserializable.
const maxSanitizeDepth = 32

var errTooDeep = errors.New("value nested too deeply")

// Model is implemented by structured result objects. Their JSON encoding is
// their canonical serialization.
type Model interface {
	ModelName() string
}

// Render writes the canonical text form of result to w.
func Render(w io.Writer, result any, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if isNil(result) {
		_, err := fmt.Fprintln(w, NoContentMessage)
		return err
	}

	switch v := result.(type) {
	case Model:
		return writeJSON(w, v)
	case bool:
		return writeJSON(w, map[string]bool{"success": v})
	}

	if items, ok := modelList(result); ok {
		return writeJSON(w, items)
	}

	data, err := marshalIndent(result)
	if err != nil {
		var safe any
		if safe, err = sanitize(reflect.ValueOf(result), 0); err == nil {
			data, err = marshalIndent(safe)
		}
	}
	if err != nil {
		logger.Warn("result could not be serialized to standard JSON", "error", err)
		_, err = fmt.Fprintf(w, "Command executed, but result could not be serialized to standard JSON: %#v\n", result)
		return err
	}
	_, err = w.Write(data)
	return err
}

// RenderQuery runs query over the JSON form of result and writes each output
// value. A nil result prints NoContentMessage.
func RenderQuery(w io.Writer, result any, query *gojq.Query, logger *slog.Logger) error {
	if isNil(result) || query == nil {
		return Render(w, result, logger)
	}

	var buf bytes.Buffer
	if err := Render(&buf, result, logger); err != nil {
		return err
	}
	var input any
	if err := json.Unmarshal(buf.Bytes(), &input); err != nil {
		return fmt.Errorf("query input is not JSON: %w", err)
	}

	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, ok := v.(error); ok {
			var halt *gojq.HaltError
			if errors.As(err, &halt) && halt.Value() == nil {
				return nil
			}
			return fmt.Errorf("query: %w", err)
		}
		if err := writeJSON(w, v); err != nil {
			return err
		}
	}
}

func writeJSON(w io.Writer, v any) error {
	data, err := marshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// marshalIndent encodes v with a two-space indent, no HTML escaping and a
// trailing newline.
func marshalIndent(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// modelList returns the canonical serialization of each element when v is a
// non-empty slice whose first element is a Model.
func modelList(v any) ([]json.RawMessage, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return nil, false
	}
	if _, ok := rv.Index(0).Interface().(Model); !ok {
		return nil, false
	}
	out := make([]json.RawMessage, 0, rv.Len())
	for i := range rv.Len() {
		data, err := json.Marshal(rv.Index(i).Interface())
		if err != nil {
			return nil, false
		}
		out = append(out, data)
	}
	return out, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// sanitize rebuilds v with every value the JSON encoder rejects replaced by
// its fmt string representation.
func sanitize(v reflect.Value, depth int) (any, error) {
	if depth > maxSanitizeDepth {
		return nil, errTooDeep
	}
	if !v.IsValid() {
		return nil, nil
	}
	if v.Type().Implements(jsonMarshalerType) || v.Type().Implements(textMarshalerType) {
		return v.Interface(), nil
	}

	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Sprint(v.Interface()), nil

	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return sanitize(v.Elem(), depth+1)

	case reflect.Map:
		if v.IsNil() {
			return nil, nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := sanitize(iter.Value(), depth+1)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = val
		}
		return out, nil

	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return v.Interface(), nil
		}
		out := make([]any, 0, v.Len())
		for i := range v.Len() {
			val, err := sanitize(v.Index(i), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	}

	if v.CanInterface() {
		return v.Interface(), nil
	}
	return fmt.Sprint(v), nil
}
