// Package telemetry sets up OpenTelemetry tracing and metrics export.
//
// New installs global tracer and meter providers exporting over OTLP (gRPC
// or HTTP/protobuf). When telemetry is disabled the global no-op providers
// stay in place, so instrumented packages can call otel.Tracer freely.
// Provider failures degrade telemetry rather than failing startup.
package telemetry
