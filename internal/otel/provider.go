package otel

import (
	"os"
)

const instrumentationName = "github.com/jpalmerr/longrun"

var (
	EnableTelemetry = false
)

func init() {
	EnableTelemetry = os.Getenv("TELEMETRY") != ""
}
