package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestInit_Disabled(t *testing.T) {
	p, err := Init(Config{}, nil)
	require.NoError(t, err)

	_, ok := p.TracerProvider.(noop.TracerProvider)
	assert.True(t, ok, "disabled tracing should use a no-op provider")
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestInit_InvalidRatio(t *testing.T) {
	_, err := Init(Config{Enabled: true, SampleRatio: 1.5}, nil)
	assert.ErrorContains(t, err, "out of range")
}

func TestProvider_Sampling(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		want  int
	}{
		{"always", 1, 1},
		{"never", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := tracetest.NewInMemoryExporter()
			p, err := newProvider(Config{Enabled: true, SampleRatio: tt.ratio}, exporter)
			require.NoError(t, err)

			_, span := p.Tracer("test").Start(context.Background(), "engine.health")
			span.End()

			// Shutdown resets the in-memory exporter.
			assert.Len(t, exporter.GetSpans(), tt.want)
			require.NoError(t, p.Shutdown(context.Background()))
			assert.Empty(t, exporter.GetSpans())
		})
	}
}

func TestProvider_Resource(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	p, err := newProvider(Config{Enabled: true, SampleRatio: 1}, exporter)
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	_, span := p.Tracer("test").Start(context.Background(), "op")
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	val, ok := spans[0].Resource.Set().Value("service.name")
	require.True(t, ok)
	assert.Equal(t, DefaultServiceName, val.AsString())
}

func TestLogExporter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	p, err := newProvider(Config{Enabled: true, ServiceName: "svc", SampleRatio: 1}, NewLogExporter(logger))
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "engine.update_doc")
	span.SetAttributes(attribute.Int("http.response.status_code", 500))
	span.SetStatus(codes.Error, errors.New("boom").Error())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `msg="span engine.update_doc"`)
	assert.Contains(t, out, "http.response.status_code=500")
	assert.Contains(t, out, "status=Error")
	assert.Contains(t, out, "error=boom")
}
