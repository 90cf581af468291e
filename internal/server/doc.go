// Package server provides the HTTP side of todosync's watch mode: a small
// server exposing Prometheus metrics and Kubernetes style health probes.
//
// MetricsServer mounts
//   - /metrics: the OpenTelemetry Prometheus exporter's registry
//   - /healthz: liveness, always ok while the process runs
//   - /readyz: readiness, ok once the last source sync succeeded
//   - /healthz/detailed: uptime and last sync information
//
// HealthChecker holds the state the probes report. The watch loop feeds it
// with RecordSync after every poll and calls SetShuttingDown on exit.
package server
