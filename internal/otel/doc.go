// Package otel adds OpenTelemetry tracing to [longrun.Remote] collaborators
// and configures the OTLP trace exporter for the command line tool.
package otel
