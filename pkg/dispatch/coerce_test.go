package dispatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func (p *payload) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type item struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

var testParams = []Param{
	Required("n", Int()),
	Required("flag", Bool()),
	Optional("s", String(), ""),
	Optional("tags", ListOf(String()), nil),
	Optional("items", ListOf(StructOf[item]("Item")), nil),
	Optional("payload", StructOf[payload]("Payload"), nil),
	Optional("labels", StringMap(), nil),
	Optional("rows", ListOf(StringMap()), nil),
	Optional("raw", Untyped(), nil),
	Optional("nested", ListOf(ListOf(Int())), nil),
}

func TestCoerce_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		input string
	}{
		{"int", "n", "42"},
		{"negative int", "n", "-7"},
		{"bool", "flag", "true"},
		{"string", "s", "hello world"},
		{"list of strings", "tags", `["a","b","c"]`},
		{"empty list", "tags", `[]`},
		{"list of structs", "items", `[{"id":1,"label":"x"},{"id":2,"label":"y"}]`},
		{"struct", "payload", `{"count":3,"name":"p"}`},
		{"string map", "labels", `{"b":"2","a":"1"}`},
		{"list of string maps", "rows", `[{"k":"v"},{}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := []string{"n=1", "flag=false", tt.key + "=" + tt.input}
			args, err := Coerce("m", testParams, in)
			require.NoError(t, err)

			got := args[tt.key]
			if p, ok := got.(*payload); ok {
				got = *p
			}
			data, err := json.Marshal(got)
			require.NoError(t, err)

			want := tt.input
			if tt.key == "s" {
				// strings are taken verbatim, not JSON-decoded
				quoted, _ := json.Marshal(tt.input)
				want = string(quoted)
			}
			assert.JSONEq(t, want, string(data))
		})
	}
}

func TestCoerce_Types(t *testing.T) {
	args, err := Coerce("m", testParams, []string{
		"n=12",
		"flag=TRUE",
		"s=a=b",
		`items=[{"id":1,"label":"x"}]`,
		`payload={"name":"p","count":2}`,
		"raw=anything",
	})
	require.NoError(t, err)

	assert.Equal(t, 12, Arg[int](args, "n"))
	assert.True(t, Arg[bool](args, "flag"))
	assert.Equal(t, "a=b", Arg[string](args, "s"))
	assert.Equal(t, []item{{ID: 1, Label: "x"}}, Arg[[]item](args, "items"))
	assert.Equal(t, &payload{Name: "p", Count: 2}, Arg[*payload](args, "payload"))
	assert.Equal(t, "anything", Arg[string](args, "raw"))
	assert.False(t, args.Has("tags"))
}

func TestCoerce_LastValueWins(t *testing.T) {
	args, err := Coerce("m", testParams, []string{"n=1", "flag=true", "n=2"})
	require.NoError(t, err)
	assert.Equal(t, 2, args["n"])
}

func TestCoerce_BoolStrict(t *testing.T) {
	for _, v := range []string{"true", "TRUE", "True", "tRuE"} {
		args, err := Coerce("m", testParams, []string{"n=1", "flag=" + v})
		require.NoError(t, err, v)
		assert.Equal(t, true, args["flag"], v)
	}
	for _, v := range []string{"false", "FALSE", "False"} {
		args, err := Coerce("m", testParams, []string{"n=1", "flag=" + v})
		require.NoError(t, err, v)
		assert.Equal(t, false, args["flag"], v)
	}
	for _, v := range []string{"1", "0", "yes", "no", "", "t"} {
		_, err := Coerce("m", testParams, []string{"n=1", "flag=" + v})
		var invalid *InvalidArgumentValueError
		require.ErrorAs(t, err, &invalid, "value %q", v)
		assert.Equal(t, "flag", invalid.Name)
		assert.Equal(t, "bool", invalid.Expected)
	}
}

func TestCoerce_Errors(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []string
		target  any
		message []string
	}{
		{
			name:    "malformed",
			inputs:  []string{"n1"},
			target:  new(*MalformedArgumentError),
			message: []string{"Invalid argument format 'n1'. Expected 'key=value'."},
		},
		{
			name:    "unknown",
			inputs:  []string{"n=1", "flag=true", "unknown_key=1"},
			target:  new(*UnknownArgumentError),
			message: []string{"Unknown argument 'unknown_key' for method 'm'."},
		},
		{
			name:    "bad int",
			inputs:  []string{"n=1.5"},
			target:  new(*InvalidArgumentValueError),
			message: []string{"'n'", "Expected int", "invalid literal for int with base 10: '1.5'"},
		},
		{
			name:    "bad struct json",
			inputs:  []string{"n=1", "flag=true", "payload={bad json"},
			target:  new(*InvalidArgumentValueError),
			message: []string{"payload", "invalid JSON provided for 'payload'", "invalid character"},
		},
		{
			name:    "struct not an object",
			inputs:  []string{"n=1", "flag=true", `payload=[{"name":"x"}]`},
			target:  new(*InvalidArgumentValueError),
			message: []string{"expected a JSON object string for 'payload'"},
		},
		{
			name:    "struct fails validation",
			inputs:  []string{"n=1", "flag=true", `payload={"count":1}`},
			target:  new(*InvalidArgumentValueError),
			message: []string{"Expected Payload", "name is required"},
		},
		{
			name:    "list not a list",
			inputs:  []string{"n=1", "flag=true", `tags={"a":"b"}`},
			target:  new(*InvalidArgumentValueError),
			message: []string{"expected a JSON list string for 'tags'"},
		},
		{
			name:    "list item not a string",
			inputs:  []string{"n=1", "flag=true", `tags=["a",1]`},
			target:  new(*InvalidArgumentValueError),
			message: []string{"expected a list of strings for 'tags'"},
		},
		{
			name:    "list item fails validation",
			inputs:  []string{"n=1", "flag=true", `items=[{"id":"x"}]`},
			target:  new(*InvalidArgumentValueError),
			message: []string{"'items'", "item 0"},
		},
		{
			name:    "string map with number",
			inputs:  []string{"n=1", "flag=true", `labels={"a":1}`},
			target:  new(*InvalidArgumentValueError),
			message: []string{"expected a JSON object with string values for 'labels'"},
		},
		{
			name:    "unsupported element",
			inputs:  []string{"n=1", "flag=true", `nested=[[1]]`},
			target:  new(*UnsupportedListElementTypeError),
			message: []string{"nested"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Coerce("m", testParams, tt.inputs)
			require.Error(t, err)
			require.ErrorAs(t, err, tt.target)
			for _, m := range tt.message {
				assert.Contains(t, err.Error(), m)
			}
			assert.True(t, IsUsageError(err))
			assert.Equal(t, ExitUsage, ExitCode(err))
		})
	}
}

func TestCoerce_InvalidValueNotLoggedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	for _, in := range []string{"n=abc", "flag=yes", "payload={bad"} {
		_, err := coerce(logger, "m", testParams, []string{in})
		require.Error(t, err, in)
		assert.True(t, IsUsageError(err), in)
	}
	assert.Empty(t, buf.String())
}

func TestCoerce_MissingReportsFullSet(t *testing.T) {
	_, err := Coerce("m", testParams, []string{"s=x"})
	var missing *MissingRequiredArgumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"n", "flag"}, missing.Names)
	assert.False(t, missing.NoInputs)
	assert.Contains(t, err.Error(), "n, flag")

	_, err = Coerce("m", testParams, []string{"flag=true"})
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Missing required argument 'n'.", err.Error())
}

func TestCoerce_EmptyValue(t *testing.T) {
	args, err := Coerce("m", testParams, []string{"n=1", "flag=true", "s="})
	require.NoError(t, err)
	assert.Equal(t, "", args["s"])
}

func TestArgsWithDefaults(t *testing.T) {
	params := []Param{
		Required("a", Int()),
		Optional("b", Bool(), true),
		Optional("c", String(), ""),
	}
	got := Args{"a": 1, "c": "x"}.withDefaults(params)
	assert.Equal(t, Args{"a": 1, "b": true, "c": "x"}, got)
}
