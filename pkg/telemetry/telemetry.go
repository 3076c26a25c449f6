// Package telemetry sets up OpenTelemetry tracing for enginectl.
//
// Tracing is opt-in. When disabled, Init returns a no-op tracer provider so
// instrumented code never needs to check. Finished spans are exported to a
// slog logger at debug level; no collector is involved.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName is used when Config.ServiceName is empty.
const DefaultServiceName = "enginectl"

// Config controls tracing.
type Config struct {
	Enabled     bool
	ServiceName string
	// SampleRatio is the fraction of root traces sampled, in [0, 1].
	SampleRatio float64
}

// Provider is an initialized tracer provider.
type Provider struct {
	trace.TracerProvider

	shutdown func(context.Context) error
}

// Shutdown flushes pending spans and stops the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.shutdown == nil {
		return nil
	}
	return p.shutdown(ctx)
}

// Init builds a tracer provider from cfg. Spans are written to logger, or
// slog.Default() when logger is nil.
func Init(cfg Config, logger *slog.Logger) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{TracerProvider: noop.NewTracerProvider()}, nil
	}
	return newProvider(cfg, NewLogExporter(logger))
}

func newProvider(cfg Config, exporter sdktrace.SpanExporter, opts ...sdktrace.TracerProviderOption) (*Provider, error) {
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		return nil, fmt.Errorf("telemetry: sample ratio %v out of range [0, 1]", cfg.SampleRatio)
	}
	name := cfg.ServiceName
	if name == "" {
		name = DefaultServiceName
	}

	tp := sdktrace.NewTracerProvider(append([]sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithSyncer(exporter),
	}, opts...)...)

	return &Provider{TracerProvider: tp, shutdown: tp.Shutdown}, nil
}
