package dispatch

import (
	"encoding/json"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// EndpointInfo is one row of the endpoint listing.
type EndpointInfo struct {
	Command          string   `json:"command" yaml:"command"`
	MethodName       string   `json:"method_name" yaml:"method_name"`
	Path             string   `json:"path" yaml:"path"`
	HTTPMethod       string   `json:"http_method" yaml:"http_method"`
	TokenPreferences []string `json:"token_preferences" yaml:"token_preferences"`
}

// EndpointList is the sorted endpoint listing. It renders as a table via
// cli.Output.
type EndpointList []EndpointInfo

// Title returns the table title.
func (EndpointList) Title() string { return "Available API Endpoints" }

// Header returns the table column names.
func (EndpointList) Header() []string {
	return []string{"Command", "HTTP Method", "API Path", "Client Method", "Token Preference (Priority)"}
}

// Rows returns one table row per endpoint.
func (l EndpointList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		tokens := "default"
		if len(e.TokenPreferences) > 0 {
			tokens = strings.Join(e.TokenPreferences, ", ")
		}
		rows = append(rows, []string{e.Command, e.HTTPMethod, e.Path, e.MethodName, tokens})
	}
	return rows
}

// ParamInfo describes one parameter for the describe-endpoint listing.
type ParamInfo struct {
	Name     string             `json:"name" yaml:"name"`
	Type     string             `json:"type" yaml:"type"`
	Required bool               `json:"required" yaml:"required"`
	Default  any                `json:"default,omitempty" yaml:"default,omitempty"`
	Schema   *jsonschema.Schema `json:"schema,omitempty" yaml:"-"`
}

// EndpointDetail is an endpoint listing record with its parameters.
type EndpointDetail struct {
	EndpointInfo `yaml:",inline"`
	Doc          string      `json:"doc,omitempty" yaml:"doc,omitempty"`
	Params       []ParamInfo `json:"params" yaml:"params"`
}

// Describe returns the detailed listing for e. Struct parameters carry their
// JSON Schema.
func (e *Endpoint[C]) Describe() (EndpointDetail, error) {
	d := EndpointDetail{
		EndpointInfo: e.Info(),
		Doc:          e.Doc,
		Params:       make([]ParamInfo, 0, len(e.Params)),
	}
	for _, p := range e.Params {
		schema, err := p.Type.JSONSchema()
		if err != nil {
			return EndpointDetail{}, err
		}
		pi := ParamInfo{
			Name:     p.Name,
			Type:     p.Type.String(),
			Required: !p.HasDefault,
			Schema:   schema,
		}
		if p.HasDefault {
			pi.Default = p.Default
		}
		d.Params = append(d.Params, pi)
	}
	return d, nil
}

// Title returns the table title.
func (d EndpointDetail) Title() string { return d.Command }

// Header returns the table column names.
func (EndpointDetail) Header() []string {
	return []string{"Argument", "Type", "Required", "Default"}
}

// Rows returns one row per parameter.
func (d EndpointDetail) Rows() [][]string {
	rows := make([][]string, 0, len(d.Params))
	for _, p := range d.Params {
		req := "no"
		if p.Required {
			req = "yes"
		}
		def := ""
		if !p.Required {
			data, _ := json.Marshal(p.Default)
			def = string(data)
		}
		rows = append(rows, []string{p.Name, p.Type, req, def})
	}
	return rows
}
