package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/itchyny/gojq"
)

const noBodyMessage = "Could not retrieve error body."

// Dispatcher runs endpoint commands against the session's client.
type Dispatcher[C io.Closer] struct {
	Session *Session[C]
	Out     io.Writer
	Logger  *slog.Logger
}

// Option configures a single Dispatch call.
type Option func(*dispatchConfig)

type dispatchConfig struct {
	query *gojq.Query
}

// WithQuery filters the rendered result through a jq query.
func WithQuery(q *gojq.Query) Option {
	return func(c *dispatchConfig) {
		c.query = q
	}
}

// Dispatch coerces inputs, invokes the endpoint and renders its result. The
// session's client is released before Dispatch returns, on every path.
func (d *Dispatcher[C]) Dispatch(ctx context.Context, ep *Endpoint[C], inputs []string, opts ...Option) (err error) {
	var cfg dispatchConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	out := d.Out
	if out == nil {
		out = os.Stdout
	}

	client, err := d.Session.Client()
	if err != nil {
		return err
	}
	d.Session.begin()
	defer func() {
		if rerr := d.Session.Release(); rerr != nil {
			logger.Warn("failed to close client", "error", rerr)
		}
		d.Session.finish(err)
	}()

	if len(inputs) == 0 {
		if required := ep.RequiredParams(); len(required) > 0 {
			return &MissingRequiredArgumentError{Method: ep.Name, Names: required, NoInputs: true}
		}
	}

	args, err := coerce(logger, ep.Name, ep.Params, inputs)
	if err != nil {
		return err
	}

	logger.Debug("calling endpoint", "method", ep.Name, "args", len(args))
	result, err := ep.Call(ctx, client, args.withDefaults(ep.Params))
	if err != nil {
		return classify(logger, ep.Name, err)
	}

	if err := RenderQuery(out, result, cfg.query, logger); err != nil {
		return &UnexpectedError{Err: err}
	}
	return nil
}

func classify(logger *slog.Logger, method string, err error) error {
	var remote RemoteError
	if errors.As(err, &remote) {
		body := remote.BodySnippet()
		if body == "" {
			body = noBodyMessage
		}
		return &RemoteCallError{
			Status:  remote.HTTPStatus(),
			Message: remote.StatusMessage(),
			Body:    body,
			Err:     err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var ue usageError
	if errors.As(err, &ue) {
		return err
	}
	logger.Error("unexpected error during command execution", "method", method, "error", err)
	return &UnexpectedError{Err: err}
}
