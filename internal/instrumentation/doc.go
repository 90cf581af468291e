// Package instrumentation provides OpenTelemetry metrics and tracing for todosync.
//
// # Metrics
//
// Tasks API calls:
//   - tasks_api_calls_total: Counter of calls by method, function template and outcome
//   - tasks_api_call_duration_seconds: Histogram of call durations
//   - tasks_api_calls_in_flight: Up/down counter of dispatched calls
//
// Task sources:
//   - source_syncs_total: Counter of source polls by source and status
//   - source_sync_duration_seconds: Histogram of poll durations
//
// Function paths contain list and task identifiers; they are reduced with
// FunctionTemplate before being used as label values unless DetailedLabels is set.
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: todosync)
//   - METRICS_DETAILED_LABELS: keep raw function paths as labels (default: false)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	svc := gtasks.New(clientID, clientSecret, gtasks.WithMetrics(provider.Metrics()))
package instrumentation
