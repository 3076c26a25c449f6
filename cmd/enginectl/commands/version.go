package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/enginectl/cmd/enginectl/internal/build"
	"github.com/haivivi/enginectl/pkg/cli"
	"github.com/haivivi/enginectl/pkg/dispatch"
)

func newVersionCmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "" {
				format, err := cli.ParseFormat(output, cli.FormatJSON, cli.FormatYAML)
				if err != nil {
					return &dispatch.UsageError{Flag: "--output", Err: err}
				}
				return cli.Output(build.Get(), cli.OutputOptions{Format: format, Writer: cmd.OutOrStdout()})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, build.String())
			if app.Verbose {
				info := build.Get()
				fmt.Fprintf(out, "  go:         %s\n", info.Go)
				fmt.Fprintf(out, "  user-agent: %s\n", build.UserAgent())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format: json, yaml")
	return cmd
}
