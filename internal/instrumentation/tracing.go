package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the tracer name used for all todosync spans.
const TracerName = "github.com/teemow/todosync"

// Span attribute keys.
const (
	SpanAttrMethod     = "http.request.method"
	SpanAttrFunction   = "tasks.function"
	SpanAttrCallID     = "tasks.call_id"
	SpanAttrStatusCode = "http.response.status_code"
	SpanAttrOutcome    = "tasks.outcome"
	SpanAttrSource     = "tasks.source"
)

// StartCallSpan starts a client span for one Tasks API call.
// The span name uses the function template so it stays low-cardinality.
func StartCallSpan(ctx context.Context, method, function, callID string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tasks."+method+" "+FunctionTemplate(function),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String(SpanAttrMethod, method),
			attribute.String(SpanAttrFunction, function),
			attribute.String(SpanAttrCallID, callID),
		),
	)
}

// StartSyncSpan starts a span covering one poll of a task source.
func StartSyncSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "source.sync",
		trace.WithAttributes(attribute.String(SpanAttrSource, source)),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}
