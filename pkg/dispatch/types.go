package dispatch

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// Kind enumerates the parameter types the coercion engine understands.
type Kind int

const (
	// KindUntyped values are passed through verbatim with a warning.
	KindUntyped Kind = iota
	KindInt
	KindBool
	KindString
	// KindStringMap is a JSON object with string values.
	KindStringMap
	KindList
	KindStruct
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "str"
	case KindStringMap:
		return "dict[str, str]"
	case KindList:
		return "list"
	case KindStruct:
		return "struct"
	default:
		return "any"
	}
}

// Validator is implemented by structured argument types that check their own
// invariants after decoding.
type Validator interface {
	Validate() error
}

// Type is the declared type of an endpoint parameter. The zero value is
// Untyped.
type Type struct {
	kind   Kind
	elem   *Type
	schema string

	decode     func(data []byte) (any, error)
	decodeList func(items []json.RawMessage) (any, error)
	jsonSchema func() (*jsonschema.Schema, error)
}

// Untyped returns the pass-through type.
func Untyped() Type { return Type{kind: KindUntyped} }

// Int returns the base-10 integer type.
func Int() Type { return Type{kind: KindInt} }

// Bool returns the strict true/false type.
func Bool() Type { return Type{kind: KindBool} }

// String returns the verbatim string type.
func String() Type { return Type{kind: KindString} }

// StringMap returns the string-keyed, string-valued object type.
func StringMap() Type { return Type{kind: KindStringMap} }

// ListOf returns a JSON array type whose items have the element type.
func ListOf(elem Type) Type { return Type{kind: KindList, elem: &elem} }

// StructOf returns a structured object type decoded into *T. The schema name
// is used in error messages and listings. If *T implements Validator, the
// decoded value is validated before it is accepted.
func StructOf[T any](schema string) Type {
	return Type{
		kind:   KindStruct,
		schema: schema,
		decode: func(data []byte) (any, error) {
			return decodeStruct[T](data)
		},
		decodeList: func(items []json.RawMessage) (any, error) {
			out := make([]T, 0, len(items))
			for i, item := range items {
				v, err := decodeStruct[T](item)
				if err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				out = append(out, *v)
			}
			return out, nil
		},
		jsonSchema: func() (*jsonschema.Schema, error) {
			return jsonschema.For[T](&jsonschema.ForOptions{})
		},
	}
}

func decodeStruct[T any](data []byte) (*T, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	if val, ok := any(v).(Validator); ok {
		if err := val.Validate(); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Kind returns the type's kind.
func (t Type) Kind() Kind { return t.kind }

// Elem returns the element type of a list. It returns Untyped for other kinds.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Untyped()
	}
	return *t.elem
}

// String renders the type the way it is shown to users.
func (t Type) String() string {
	switch t.kind {
	case KindList:
		return "list[" + t.Elem().String() + "]"
	case KindStruct:
		return t.schema
	default:
		return t.kind.String()
	}
}

// JSONSchema returns the JSON Schema of a struct type, or of a list of
// structs. Other kinds return nil.
func (t Type) JSONSchema() (*jsonschema.Schema, error) {
	switch t.kind {
	case KindStruct:
		return t.jsonSchema()
	case KindList:
		if t.elem.kind != KindStruct {
			return nil, nil
		}
		items, err := t.elem.jsonSchema()
		if err != nil {
			return nil, err
		}
		return &jsonschema.Schema{Type: "array", Items: items}, nil
	}
	return nil, nil
}

// Param describes one endpoint parameter.
type Param struct {
	Name       string
	Type       Type
	HasDefault bool
	Default    any
}

// Required declares a parameter without a default.
func Required(name string, t Type) Param {
	return Param{Name: name, Type: t}
}

// Optional declares a parameter with a default value.
func Optional(name string, t Type, def any) Param {
	return Param{Name: name, Type: t, HasDefault: true, Default: def}
}

// Args is the coerced argument bag, keyed by parameter name.
type Args map[string]any

// Has reports whether the bag holds a value for name.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// withDefaults returns a copy of a with every absent defaulted param filled.
func (a Args) withDefaults(params []Param) Args {
	out := make(Args, len(params))
	for _, p := range params {
		if p.HasDefault {
			out[p.Name] = p.Default
		}
	}
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Arg returns the value of name as T, or the zero T when absent or of a
// different type.
func Arg[T any](a Args, name string) T {
	v, _ := a[name].(T)
	return v
}
