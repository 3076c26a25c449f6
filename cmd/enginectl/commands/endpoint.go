package commands

import (
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/haivivi/enginectl/pkg/cli"
	"github.com/haivivi/enginectl/pkg/dispatch"
	"github.com/haivivi/enginectl/pkg/engine"
)

func newEndpointCmd(app *App, ep *dispatch.Endpoint[engine.API]) *cobra.Command {
	var (
		inputs []string
		file   string
		query  string
	)

	cmd := &cobra.Command{
		Use:         ep.Command(),
		Short:       ep.Doc,
		Long:        endpointLong(ep),
		Args:        usageArgs(cobra.NoArgs),
		Annotations: map[string]string{annotationNeeds: needsClient},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Dispatch releases the client itself; this covers early returns.
			defer app.releaseClient()

			var opts []dispatch.Option
			if query != "" {
				q, err := gojq.Parse(query)
				if err != nil {
					app.Session.Fail()
					return &dispatch.UsageError{Flag: "--query", Err: err}
				}
				opts = append(opts, dispatch.WithQuery(q))
			}

			args := inputs
			if file != "" {
				fromFile, err := cli.LoadArguments(file, cmd.InOrStdin())
				if err != nil {
					app.Session.Fail()
					return &dispatch.UsageError{Flag: "--file", Err: err}
				}
				args = append(fromFile, inputs...)
			}

			d := &dispatch.Dispatcher[engine.API]{
				Session: app.Session,
				Out:     cmd.OutOrStdout(),
				Logger:  app.Logger,
			}
			return d.Dispatch(cmd.Context(), ep, args, opts...)
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "argument as key=value (repeatable)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML/JSON file of arguments, '-' for stdin (-i wins)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "jq expression applied to the result")
	return cmd
}

func endpointLong(ep *dispatch.Endpoint[engine.API]) string {
	var b strings.Builder
	b.WriteString(ep.Doc)
	fmt.Fprintf(&b, "\n\nCalls %s %s.", ep.HTTPMethod, ep.Path)
	if len(ep.Params) == 0 {
		return b.String()
	}
	b.WriteString("\n\nArguments (-i key=value):\n")
	for _, p := range ep.Params {
		if p.HasDefault {
			fmt.Fprintf(&b, "  %-16s %s (default %v)\n", p.Name, p.Type, p.Default)
		} else {
			fmt.Fprintf(&b, "  %-16s %s (required)\n", p.Name, p.Type)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
