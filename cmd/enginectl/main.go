// Package main is the entry point for enginectl, the engine API command
// line client.
//
// Usage:
//
//	enginectl [flags] <command> [-i key=value ...]
//
// Commands:
//
//	<endpoint>         - one command per engine API endpoint
//	list-endpoints     - list endpoints (table, json, yaml)
//	describe-endpoint  - show the arguments of an endpoint
//	config             - show effective or default configuration
//	version            - show version information
//
// Exit status is 0 on success, 2 for invalid arguments and 1 otherwise.
package main

import (
	"os"

	"github.com/haivivi/enginectl/cmd/enginectl/commands"
	"github.com/haivivi/enginectl/pkg/dispatch"
)

func main() {
	os.Exit(dispatch.Report(os.Stderr, commands.Execute()))
}
