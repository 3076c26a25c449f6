package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/enginectl/cmd/enginectl/internal/config"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
		Long: `Show the effective configuration or the built-in defaults.

The default output of 'config default' is a complete starting point for a
configuration file:

  enginectl config default > ~/.config/enginectl/config.yaml`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:         "view",
			Short:       "Print the effective configuration with tokens masked",
			Args:        usageArgs(cobra.NoArgs),
			Annotations: map[string]string{annotationNeeds: needsConfig},
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := app.Config.Masked().YAML()
				if err != nil {
					return err
				}
				if app.Config.Path != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", app.Config.Path)
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
		&cobra.Command{
			Use:   "default",
			Short: "Print the default configuration",
			Args:  usageArgs(cobra.NoArgs),
			RunE: func(cmd *cobra.Command, _ []string) error {
				data, err := config.Default().YAML()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			},
		},
	)
	return cmd
}
