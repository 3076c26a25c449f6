package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/haivivi/enginectl/cmd/enginectl/internal/build"
	"github.com/haivivi/enginectl/cmd/enginectl/internal/config"
	"github.com/haivivi/enginectl/pkg/dispatch"
	"github.com/haivivi/enginectl/pkg/engine"
	"github.com/haivivi/enginectl/pkg/telemetry"
)

// annotationNeeds marks what a command requires before it runs.
const annotationNeeds = "enginectl/needs"

const (
	needsConfig = "config"
	needsClient = "client"
)

// App holds the state of one CLI invocation.
type App struct {
	Out io.Writer
	Err io.Writer
	In  io.Reader

	// Environ replaces the process environment for configuration overrides
	// when non-nil.
	Environ []string

	ConfigPath string
	Verbose    bool

	Logger  *slog.Logger
	Config  *config.Config
	Session *dispatch.Session[engine.API]

	level   slog.LevelVar
	clients *engine.Memo
	tracing *telemetry.Provider
}

// NewApp returns an App writing to the standard streams.
func NewApp() *App {
	a := &App{
		Out:     os.Stdout,
		Err:     os.Stderr,
		In:      os.Stdin,
		Session: dispatch.NewSession[engine.API](),
	}
	a.clients = engine.NewMemo(a.buildClient)
	return a
}

// Execute runs the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := NewApp()
	root, err := NewRootCommand(app)
	if err != nil {
		return err
	}
	slog.SetDefault(app.Logger)

	err = root.ExecuteContext(ctx)
	app.Shutdown(context.Background())
	return err
}

// NewRootCommand builds the command tree for app.
func NewRootCommand(app *App) (*cobra.Command, error) {
	registry, err := engine.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("build endpoint registry: %w", err)
	}

	app.level.Set(slog.LevelWarn)
	app.Logger = slog.New(slog.NewTextHandler(app.Err, &slog.HandlerOptions{Level: &app.level}))

	root := &cobra.Command{
		Use:   "enginectl",
		Short: "Command line client for the engine API",
		Long: `enginectl - call the engine backend API from the command line.

Every API endpoint is a subcommand. Arguments are passed as key=value pairs:

  enginectl get-case-data -i request_id=42 -i with_summary=true
  enginectl update-doc -i doc_id=7 -i 'ocr_pages=["page one"]'
  enginectl action-trigger -i 'engine_trigger={"trigger_id": "t1"}'

Configuration is read from --config, $ENGINECTL_CONFIG, or config.yaml in
the OS config directory, then overridden by ENGINECTL_* variables
(e.g. ENGINECTL_ENGINE__ENDPOINT, ENGINECTL_ENGINE__TOKEN).

Use 'enginectl list-endpoints' to see all endpoints.`,
		Version:       build.Version,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.preRun(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(app.Out)
	root.SetErr(app.Err)
	root.SetIn(app.In)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &dispatch.UsageError{Err: err}
	})

	root.PersistentFlags().StringVarP(&app.ConfigPath, "config", "c", "", "path to the configuration file")
	root.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "verbose output")

	for _, ep := range registry.Endpoints() {
		root.AddCommand(newEndpointCmd(app, ep))
	}
	root.AddCommand(
		newListEndpointsCmd(registry),
		newDescribeEndpointCmd(registry),
		newConfigCmd(app),
		newVersionCmd(app),
	)
	return root, nil
}

// Shutdown releases the client and flushes pending spans.
func (a *App) Shutdown(ctx context.Context) {
	a.releaseClient()
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			a.Logger.Warn("failed to shut down tracing", "error", err)
		}
	}
}

// releaseClient closes the session's client, logging a close failure.
func (a *App) releaseClient() {
	if err := a.Session.Release(); err != nil {
		a.Logger.Warn("failed to close client", "error", err)
	}
}

func (a *App) preRun(cmd *cobra.Command) error {
	if a.Verbose {
		a.level.Set(slog.LevelDebug)
	}
	if a.ConfigPath != "" {
		if err := checkConfigFile(a.ConfigPath); err != nil {
			return &dispatch.UsageError{Flag: "--config", Err: err}
		}
	}

	switch cmd.Annotations[annotationNeeds] {
	case needsConfig:
		return a.loadConfig()
	case needsClient:
		if err := a.prepareClient(); err != nil {
			a.Session.Fail()
			return err
		}
	}
	return nil
}

func (a *App) loadConfig() error {
	if a.Config != nil {
		return nil
	}
	environ := a.Environ
	if environ == nil {
		environ = os.Environ()
	}
	cfg, err := config.LoadWithEnv(a.ConfigPath, environ)
	if err != nil {
		return &dispatch.ConfigurationError{Msg: "Failed to load configuration", Err: err}
	}
	if !a.Verbose {
		level, err := cfg.SlogLevel()
		if err != nil {
			return &dispatch.ConfigurationError{Err: err}
		}
		a.level.Set(level)
	}
	a.Config = cfg
	a.Logger.Debug("configuration loaded", "path", cfg.Path, "env", cfg.App.Env)
	return nil
}

func (a *App) prepareClient() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.Config.Validate(); err != nil {
		return &dispatch.ConfigurationError{Err: err}
	}
	a.Session.Configured()

	tp, err := telemetry.Init(a.Config.TracingConfig(), a.Logger)
	if err != nil {
		return &dispatch.ConfigurationError{Err: err}
	}
	a.tracing = tp

	client, err := a.clients.Get()
	if err != nil {
		return err
	}
	a.Session.Attach(client)
	a.Logger.Debug("engine client initialized", "endpoint", a.Config.Engine.Endpoint)
	return nil
}

func (a *App) buildClient() (engine.API, error) {
	opts := append(a.Config.ClientOptions(),
		engine.WithUserAgent(build.UserAgent()),
		engine.WithLogger(a.Logger),
	)
	if a.tracing != nil {
		opts = append(opts, engine.WithTracerProvider(a.tracing))
	}
	return engine.NewClient(a.Config.Engine.Endpoint, a.Config.Engine.Token, opts...), nil
}

// checkConfigFile verifies path names an existing, readable regular file.
func checkConfigFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("File '%s' does not exist.", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("File '%s' is a directory.", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("File '%s' is not readable.", path)
	}
	return f.Close()
}

// usageArgs turns positional argument validation failures into usage
// errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return &dispatch.UsageError{Err: err}
		}
		return nil
	}
}
