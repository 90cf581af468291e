package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// SyncRecord captures one poll of a task source for the audit log.
type SyncRecord struct {
	Source  string
	Account string

	StartTime time.Time
	Duration  time.Duration
	Lists     int
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewSyncRecord starts timing a sync of source. Call Complete when it ends.
func NewSyncRecord(source string) *SyncRecord {
	return &SyncRecord{
		Source:    source,
		StartTime: time.Now(),
	}
}

// WithAccount sets the account the source belongs to.
func (r *SyncRecord) WithAccount(account string) *SyncRecord {
	r.Account = account
	return r
}

// WithSpanContext copies the trace and span IDs of the span in ctx.
func (r *SyncRecord) WithSpanContext(ctx context.Context) *SyncRecord {
	r.TraceID = GetTraceID(ctx)
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.SpanID = sc.SpanID().String()
	}
	return r
}

// Complete stops the timer and stores the outcome.
func (r *SyncRecord) Complete(lists int, err error) *SyncRecord {
	r.Duration = time.Since(r.StartTime)
	r.Lists = lists
	r.Success = err == nil
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Status returns StatusSuccess or StatusError.
func (r *SyncRecord) Status() string {
	if r.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns the record as slog attributes. Empty optional fields are left out.
func (r *SyncRecord) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("source", r.Source),
		slog.String("status", r.Status()),
		slog.Duration("duration", r.Duration),
		slog.Int("lists", r.Lists),
	}
	if r.Account != "" {
		attrs = append(attrs, slog.String("account", r.Account))
	}
	if r.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", r.TraceID))
	}
	if r.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", r.SpanID))
	}
	if r.Error != "" {
		attrs = append(attrs, slog.String("error", r.Error))
	}
	return attrs
}

// AuditLogger writes sync records. A nil AuditLogger discards them.
type AuditLogger struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditLogger creates an AuditLogger writing to logger.
func NewAuditLogger(logger *slog.Logger, enabled bool) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, enabled: enabled}
}

// LogSync writes r at info level on success and warn level on failure.
func (al *AuditLogger) LogSync(r *SyncRecord) {
	if al == nil || !al.enabled {
		return
	}

	level := slog.LevelInfo
	msg := "source_synced"
	if !r.Success {
		level = slog.LevelWarn
		msg = "source_sync_failed"
	}
	al.logger.LogAttrs(context.Background(), level, msg, r.LogAttrs()...)
}
