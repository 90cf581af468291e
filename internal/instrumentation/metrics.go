package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod   = "method"
	attrFunction = "function"
	attrOutcome  = "outcome"
	attrSource   = "source"
	attrStatus   = "status"
)

// Metrics records Tasks API call and source sync metrics.
// The zero value is a valid no-op recorder.
type Metrics struct {
	callsTotal    metric.Int64Counter
	callDuration  metric.Float64Histogram
	callsInFlight metric.Int64UpDownCounter

	syncsTotal   metric.Int64Counter
	syncDuration metric.Float64Histogram

	// detailedLabels keeps raw function paths as label values
	detailedLabels bool
}

// NewMetrics creates all instruments on the given meter.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{detailedLabels: detailedLabels}

	var err error

	m.callsTotal, err = meter.Int64Counter(
		"tasks_api_calls_total",
		metric.WithDescription("Total number of Tasks API calls by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks_api_calls_total counter: %w", err)
	}

	m.callDuration, err = meter.Float64Histogram(
		"tasks_api_call_duration_seconds",
		metric.WithDescription("Tasks API call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks_api_call_duration_seconds histogram: %w", err)
	}

	m.callsInFlight, err = meter.Int64UpDownCounter(
		"tasks_api_calls_in_flight",
		metric.WithDescription("Number of dispatched Tasks API calls without an outcome yet"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks_api_calls_in_flight counter: %w", err)
	}

	m.syncsTotal, err = meter.Int64Counter(
		"source_syncs_total",
		metric.WithDescription("Total number of task source polls by status"),
		metric.WithUnit("{sync}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source_syncs_total counter: %w", err)
	}

	m.syncDuration, err = meter.Float64Histogram(
		"source_sync_duration_seconds",
		metric.WithDescription("Task source poll duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source_sync_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// CallStarted marks one more call as in flight.
func (m *Metrics) CallStarted(ctx context.Context, method string) {
	if m == nil || m.callsInFlight == nil {
		return
	}
	m.callsInFlight.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMethod, method)))
}

// RecordCall records the outcome of a finished call and releases its in-flight slot.
//
// Parameters:
//   - method: HTTP verb of the call
//   - function: resource path, reduced to a template unless detailed labels are on
//   - outcome: one of the Outcome* constants
//   - duration: time from dispatch to outcome
func (m *Metrics) RecordCall(ctx context.Context, method, function, outcome string, duration time.Duration) {
	if m == nil || m.callsTotal == nil || m.callDuration == nil {
		return
	}

	if !m.detailedLabels {
		function = FunctionTemplate(function)
	}

	attrs := metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrFunction, function),
		attribute.String(attrOutcome, outcome),
	)

	m.callsTotal.Add(ctx, 1, attrs)
	m.callDuration.Record(ctx, duration.Seconds(), attrs)
	if m.callsInFlight != nil {
		m.callsInFlight.Add(ctx, -1, metric.WithAttributes(attribute.String(attrMethod, method)))
	}
}

// RecordSync records one poll of a task source.
func (m *Metrics) RecordSync(ctx context.Context, source, status string, duration time.Duration) {
	if m == nil || m.syncsTotal == nil || m.syncDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrSource, source),
		attribute.String(attrStatus, status),
	)

	m.syncsTotal.Add(ctx, 1, attrs)
	m.syncDuration.Record(ctx, duration.Seconds(), attrs)
}
