package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope used for API spans.
const TracerName = "github.com/gamex/gamex-cli/internal/api"

// Tracer returns the API tracer from the global provider (no-op unless
// SetupTracing installed an exporter).
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// TracingEnabled reports whether an OTLP endpoint is configured.
func TracingEnabled() bool {
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != "" ||
		strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT")) != ""
}

// SetupTracing installs a batching OTLP/HTTP exporter configured from the
// standard OTEL_EXPORTER_OTLP_* variables. The returned function flushes and
// shuts the provider down; it is safe to call when tracing is disabled.
func SetupTracing(ctx context.Context) (func(context.Context) error, error) {
	if !TracingEnabled() {
		return func(context.Context) error { return nil }, nil
	}
	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
