package dispatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Coerce parses raw "key=value" inputs against the method's parameters and
// returns the validated argument bag. Later inputs for the same key replace
// earlier ones.
func Coerce(method string, params []Param, raw []string) (Args, error) {
	return coerce(slog.Default(), method, params, raw)
}

func coerce(logger *slog.Logger, method string, params []Param, raw []string) (Args, error) {
	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	args := make(Args, len(raw))
	for _, in := range raw {
		key, value, ok := strings.Cut(in, "=")
		if !ok {
			return nil, &MalformedArgumentError{Raw: in}
		}

		p, ok := byName[key]
		if !ok {
			return nil, &UnknownArgumentError{Name: key, Method: method}
		}

		v, err := coerceValue(logger, p, value)
		if err != nil {
			logger.Debug("argument validation failed", "argument", key, "value", value, "error", err)
			return nil, err
		}
		args[key] = v
	}

	if missing := missingRequired(params, args); len(missing) > 0 {
		return nil, &MissingRequiredArgumentError{Method: method, Names: missing}
	}
	return args, nil
}

// missingRequired returns required parameter names absent from args, in
// declaration order.
func missingRequired(params []Param, args Args) []string {
	var missing []string
	for _, p := range params {
		if !p.HasDefault && !args.Has(p.Name) {
			missing = append(missing, p.Name)
		}
	}
	return missing
}

func coerceValue(logger *slog.Logger, p Param, value string) (any, error) {
	invalid := func(err error) error {
		return &InvalidArgumentValueError{Name: p.Name, Expected: p.Type.String(), Err: err}
	}

	switch p.Type.Kind() {
	case KindStruct:
		data, err := parseJSON(p.Name, value)
		if err != nil {
			return nil, invalid(err)
		}
		if _, ok := data.(map[string]any); !ok {
			return nil, invalid(fmt.Errorf("expected a JSON object string for '%s'", p.Name))
		}
		v, err := p.Type.decode([]byte(value))
		if err != nil {
			return nil, invalid(err)
		}
		return v, nil

	case KindList:
		return coerceList(p, value)

	case KindInt:
		n, err := strconv.ParseInt(value, 10, 0)
		if err != nil {
			return nil, invalid(fmt.Errorf("invalid literal for int with base 10: '%s'", value))
		}
		return int(n), nil

	case KindBool:
		switch strings.ToLower(value) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, invalid(fmt.Errorf("expected 'true' or 'false' for boolean '%s'", p.Name))

	case KindString:
		return value, nil

	case KindStringMap:
		data, err := parseJSON(p.Name, value)
		if err != nil {
			return nil, invalid(err)
		}
		m, ok := toStringMap(data)
		if !ok {
			return nil, invalid(fmt.Errorf("expected a JSON object with string values for '%s'", p.Name))
		}
		return m, nil

	default:
		logger.Warn("passing argument without specific validation, treating as string",
			"argument", p.Name, "type", p.Type.String())
		return value, nil
	}
}

func coerceList(p Param, value string) (any, error) {
	invalid := func(err error) error {
		return &InvalidArgumentValueError{Name: p.Name, Expected: p.Type.String(), Err: err}
	}

	data, err := parseJSON(p.Name, value)
	if err != nil {
		return nil, invalid(err)
	}
	if _, ok := data.([]any); !ok {
		return nil, invalid(fmt.Errorf("expected a JSON list string for '%s'", p.Name))
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(value), &items); err != nil {
		return nil, invalid(err)
	}

	elem := p.Type.Elem()
	switch elem.Kind() {
	case KindString:
		out := make([]string, 0, len(items))
		for _, item := range data.([]any) {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(fmt.Errorf("expected a list of strings for '%s'", p.Name))
			}
			out = append(out, s)
		}
		return out, nil

	case KindStringMap:
		out := make([]map[string]string, 0, len(items))
		for _, item := range data.([]any) {
			m, ok := toStringMap(item)
			if !ok {
				return nil, invalid(fmt.Errorf("expected a list of dicts with string keys/values for '%s'", p.Name))
			}
			out = append(out, m)
		}
		return out, nil

	case KindStruct:
		v, err := elem.decodeList(items)
		if err != nil {
			return nil, invalid(err)
		}
		return v, nil
	}
	return nil, &UnsupportedListElementTypeError{Name: p.Name, Elem: elem.String()}
}

// parseJSON decodes value, wrapping decode failures with the parameter name.
func parseJSON(name, value string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(value), &v); err != nil {
		var syntax *json.SyntaxError
		if errors.As(err, &syntax) {
			return nil, fmt.Errorf("invalid JSON provided for '%s': %w (offset %d)", name, err, syntax.Offset)
		}
		return nil, fmt.Errorf("invalid JSON provided for '%s': %w", name, err)
	}
	return v, nil
}

func toStringMap(v any) (map[string]string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string]string, len(obj))
	for k, val := range obj {
		s, ok := val.(string)
		if !ok {
			return nil, false
		}
		out[k] = s
	}
	return out, true
}
