// Package cli provides output and input helpers for command-line tools.
//
// This package includes:
//   - Output formatting (JSON, YAML, table)
//   - Request and argument file loading (YAML/JSON)
//
// Example usage:
//
//	format, err := cli.ParseFormat(flag, cli.FormatTable, cli.FormatJSON, cli.FormatYAML)
//
//	cli.Output(result, cli.OutputOptions{
//	    Format: format,
//	    Writer: cmd.OutOrStdout(),
//	})
package cli
