package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/enginectl/pkg/cli"
	"github.com/haivivi/enginectl/pkg/dispatch"
	"github.com/haivivi/enginectl/pkg/engine"
)

var listFormats = []cli.OutputFormat{cli.FormatTable, cli.FormatJSON, cli.FormatYAML}

func parseListFormat(s string) (cli.OutputFormat, error) {
	f, err := cli.ParseFormat(s, listFormats...)
	if err != nil {
		return "", &dispatch.UsageError{Flag: "--output", Err: err}
	}
	return f, nil
}

func newListEndpointsCmd(registry *dispatch.Registry[engine.API]) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "list-endpoints",
		Short: "List all API endpoints with their paths, methods and token preferences",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := parseListFormat(output)
			if err != nil {
				return err
			}
			return cli.Output(registry.Infos(), cli.OutputOptions{
				Format: format,
				Writer: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(cli.FormatTable), "output format: table, json, yaml")
	return cmd
}

func newDescribeEndpointCmd(registry *dispatch.Registry[engine.API]) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "describe-endpoint <command>",
		Short: "Show the arguments of an endpoint and the JSON Schema of structured ones",
		Args:  usageArgs(cobra.ExactArgs(1)),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]cobra.Completion, cobra.ShellCompDirective) {
			names := make([]cobra.Completion, 0, registry.Len())
			for _, ep := range registry.Endpoints() {
				names = append(names, ep.Command())
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseListFormat(output)
			if err != nil {
				return err
			}
			name := strings.ReplaceAll(args[0], "_", "-")
			ep, ok := registry.Lookup(name)
			if !ok {
				return &dispatch.UsageError{
					Flag: "COMMAND",
					Err:  fmt.Errorf("unknown endpoint %q; see 'enginectl list-endpoints'", args[0]),
				}
			}
			detail, err := ep.Describe()
			if err != nil {
				return err
			}
			return cli.Output(detail, cli.OutputOptions{
				Format: format,
				Writer: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", string(cli.FormatTable), "output format: table, json, yaml")
	return cmd
}
