package dispatch

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Endpoint binds one client method to its parameter descriptors and
// backend metadata.
type Endpoint[C any] struct {
	Name   string
	Doc    string
	Params []Param
	Call   func(ctx context.Context, client C, args Args) (any, error)

	Path       string
	HTTPMethod string
	Tokens     []string
}

// Command returns the CLI subcommand name: the method name with '_'
// replaced by '-'.
func (e *Endpoint[C]) Command() string {
	return strings.ReplaceAll(e.Name, "_", "-")
}

// RequiredParams returns the names of parameters without a default.
func (e *Endpoint[C]) RequiredParams() []string {
	var out []string
	for _, p := range e.Params {
		if !p.HasDefault {
			out = append(out, p.Name)
		}
	}
	return out
}

// Info returns the listing record for the endpoint.
func (e *Endpoint[C]) Info() EndpointInfo {
	tokens := make([]string, len(e.Tokens))
	copy(tokens, e.Tokens)
	return EndpointInfo{
		Command:          e.Command(),
		MethodName:       e.Name,
		Path:             e.Path,
		HTTPMethod:       e.HTTPMethod,
		TokenPreferences: tokens,
	}
}

// Meta is the static backend metadata of one client method.
type Meta struct {
	Path   string
	Method string
	Tokens []string
}

// Registry is the immutable, command-sorted set of exposed endpoints.
type Registry[C any] struct {
	endpoints []*Endpoint[C]
	byCommand map[string]*Endpoint[C]
}

// NewRegistry builds the registry from the client method bindings. A binding
// is exposed only if its name is public, not in deny and has an entry in
// meta. Two bindings mapping to the same command are an error.
func NewRegistry[C any](bindings []Endpoint[C], meta map[string]Meta, deny ...string) (*Registry[C], error) {
	r := &Registry[C]{byCommand: make(map[string]*Endpoint[C], len(bindings))}
	for i := range bindings {
		b := bindings[i]
		if strings.HasPrefix(b.Name, "_") || slices.Contains(deny, b.Name) {
			continue
		}
		m, ok := meta[b.Name]
		if !ok {
			continue
		}
		if b.Call == nil {
			return nil, fmt.Errorf("dispatch: endpoint %q has no call binding", b.Name)
		}
		b.Path = m.Path
		b.HTTPMethod = m.Method
		b.Tokens = slices.Clone(m.Tokens)

		cmd := b.Command()
		if prev, dup := r.byCommand[cmd]; dup {
			return nil, fmt.Errorf("dispatch: methods %q and %q both map to command %q", prev.Name, b.Name, cmd)
		}
		r.byCommand[cmd] = &b
		r.endpoints = append(r.endpoints, &b)
	}
	slices.SortFunc(r.endpoints, func(a, b *Endpoint[C]) int {
		return strings.Compare(a.Command(), b.Command())
	})
	return r, nil
}

// Endpoints returns the exposed endpoints sorted by command name.
func (r *Registry[C]) Endpoints() []*Endpoint[C] {
	return slices.Clone(r.endpoints)
}

// Lookup returns the endpoint for a command name.
func (r *Registry[C]) Lookup(command string) (*Endpoint[C], bool) {
	e, ok := r.byCommand[command]
	return e, ok
}

// Infos returns the listing records of every endpoint, sorted by command.
func (r *Registry[C]) Infos() EndpointList {
	out := make(EndpointList, 0, len(r.endpoints))
	for _, e := range r.endpoints {
		out = append(out, e.Info())
	}
	return out
}

// Len returns the number of exposed endpoints.
func (r *Registry[C]) Len() int { return len(r.endpoints) }
