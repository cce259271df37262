// Package infrastructure provides process-level wiring: the global
// structured logger and the OpenTelemetry metrics stack with its
// Prometheus exporter.
package infrastructure
