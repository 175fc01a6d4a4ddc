package otel

import (
	"context"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

// Setup installs a global tracer provider exporting over OTLP/HTTP when
// telemetry is enabled (TELEMETRY is set). The exporter is configured through
// the standard OTEL_EXPORTER_OTLP_* variables.
//
// The returned function flushes and stops the provider. It is a no-op when
// telemetry is disabled.
func Setup(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	if !EnableTelemetry {
		return noop, nil
	}

	if name := strings.TrimSpace(os.Getenv("OTEL_SERVICE_NAME")); name != "" {
		serviceName = name
	}

	resource := sdkresource.NewWithAttributes(semconv.SchemaURL,
		semconv.ServiceName(serviceName),
	)

	exporter, err := otlptracehttp.New(ctx)

	if err != nil {
		return noop, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(time.Second)),
		sdktrace.WithResource(resource),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
