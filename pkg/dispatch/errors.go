package dispatch

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Exit codes returned by Report.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// ErrClientNotInitialized is returned when a command is dispatched without a
// live client.
var ErrClientNotInitialized = errors.New("client not initialized")

// usageError is implemented by every error that stems from how the command
// was invoked rather than from the remote call.
type usageError interface {
	error
	hint() string
}

// ConfigurationError reports settings that failed to load or lack the
// backend endpoint or token.
type ConfigurationError struct {
	Msg string
	Err error
}

func (e *ConfigurationError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// MalformedArgumentError reports an input without '='.
type MalformedArgumentError struct {
	Raw string
}

func (e *MalformedArgumentError) Error() string {
	return fmt.Sprintf("Invalid argument format '%s'. Expected 'key=value'.", e.Raw)
}

func (e *MalformedArgumentError) hint() string { return "-i" }

// UnknownArgumentError reports a key that names no parameter of the method.
type UnknownArgumentError struct {
	Name   string
	Method string
}

func (e *UnknownArgumentError) Error() string {
	return fmt.Sprintf("Unknown argument '%s' for method '%s'.", e.Name, e.Method)
}

func (e *UnknownArgumentError) hint() string { return "-i" }

// MissingRequiredArgumentError lists every required parameter that was not
// supplied, in declaration order.
type MissingRequiredArgumentError struct {
	Method string
	Names  []string
	// NoInputs is set when the command was invoked without any -i flag.
	NoInputs bool
}

func (e *MissingRequiredArgumentError) Error() string {
	if e.NoInputs {
		return fmt.Sprintf("Command '%s' requires arguments, but none were provided via -i/--input. Required: %s",
			e.Method, strings.Join(e.Names, ", "))
	}
	if len(e.Names) == 1 {
		return fmt.Sprintf("Missing required argument '%s'.", e.Names[0])
	}
	return fmt.Sprintf("Missing required arguments for '%s': %s", e.Method, strings.Join(e.Names, ", "))
}

func (e *MissingRequiredArgumentError) hint() string {
	if len(e.Names) == 0 {
		return "-i"
	}
	return "-i " + e.Names[0] + "=..."
}

// InvalidArgumentValueError reports a value that does not parse or validate
// as the declared type.
type InvalidArgumentValueError struct {
	Name     string
	Expected string
	Err      error
}

func (e *InvalidArgumentValueError) Error() string {
	return fmt.Sprintf("Invalid value for argument '%s'. Expected %s. Error: %v", e.Name, e.Expected, e.Err)
}

func (e *InvalidArgumentValueError) Unwrap() error { return e.Err }

func (e *InvalidArgumentValueError) hint() string { return "-i " + e.Name + "=..." }

// UnsupportedListElementTypeError reports a list parameter whose element type
// the coercion engine cannot build.
type UnsupportedListElementTypeError struct {
	Name string
	Elem string
}

func (e *UnsupportedListElementTypeError) Error() string {
	return fmt.Sprintf("Unsupported list item type %s for '%s'.", e.Elem, e.Name)
}

func (e *UnsupportedListElementTypeError) hint() string { return "-i " + e.Name + "=..." }

// UsageError reports any other malformed invocation (bad flag, bad path).
type UsageError struct {
	Flag string
	Err  error
}

func (e *UsageError) Error() string { return e.Err.Error() }

func (e *UsageError) Unwrap() error { return e.Err }

func (e *UsageError) hint() string { return e.Flag }

// RemoteError is implemented by transport errors that carry an HTTP status.
type RemoteError interface {
	error
	HTTPStatus() int
	StatusMessage() string
	BodySnippet() string
}

// RemoteCallError reports a non-2xx backend response.
type RemoteCallError struct {
	Status  int
	Message string
	Body    string
	Err     error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("API call failed with status %d: %s", e.Status, e.Message)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

// UnexpectedError wraps any other failure during dispatch.
type UnexpectedError struct {
	Err error
}

func (e *UnexpectedError) Error() string { return e.Err.Error() }

func (e *UnexpectedError) Unwrap() error { return e.Err }

// IsUsageError reports whether err is an argument or invocation error.
func IsUsageError(err error) bool {
	var ue usageError
	return errors.As(err, &ue)
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsUsageError(err):
		return ExitUsage
	default:
		return ExitError
	}
}

// Report writes the user-facing message for err to w and returns the exit
// code. Only status, message and offending field are surfaced.
func Report(w io.Writer, err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		ue     usageError
		cfgErr *ConfigurationError
		remote *RemoteCallError
		unexp  *UnexpectedError
	)
	switch {
	case errors.As(err, &ue):
		if h := ue.hint(); h != "" {
			fmt.Fprintf(w, "Error: Invalid value for '%s': %s\n", h, ue.Error())
		} else {
			fmt.Fprintf(w, "Error: %s\n", ue.Error())
		}
	case errors.Is(err, ErrClientNotInitialized):
		fmt.Fprintln(w, "Client not initialized.")
	case errors.As(err, &cfgErr):
		fmt.Fprintln(w, cfgErr.Error())
	case errors.As(err, &remote):
		fmt.Fprintf(w, "Error: API call failed with status %d.\nMessage: %s\nBody Snippet: %s\n",
			remote.Status, remote.Message, remote.Body)
	case errors.As(err, &unexp):
		fmt.Fprintf(w, "An unexpected error occurred: %v\n", unexp.Err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return ExitCode(err)
}
