package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/teemow/todosync/internal/instrumentation"
	"github.com/teemow/todosync/internal/logging"
)

var (
	ErrSourceExists   = errors.New("source already registered")
	ErrSourceNotFound = errors.New("source not found")
)

// SyncResult is the outcome of listing one source during Manager.Sync.
type SyncResult struct {
	SourceID string
	Lists    []TaskList
	Err      error
	Duration time.Duration
}

// Manager keeps the registered sources by ID.
type Manager struct {
	mu      sync.RWMutex
	sources map[string]Source

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger
}

// NewManager creates an empty Manager. metrics may be nil.
func NewManager(metrics *instrumentation.Metrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sources: make(map[string]Source),
		metrics: metrics,
		logger:  logger,
	}
}

// SetAuditLogger makes Sync emit one audit record per source. nil disables it.
func (m *Manager) SetAuditLogger(audit *instrumentation.AuditLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = audit
}

// Add registers src. IDs must be unique.
func (m *Manager) Add(src Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[src.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrSourceExists, src.ID())
	}
	m.sources[src.ID()] = src
	m.logger.Debug("source added", slog.String("source", src.ID()))
	return nil
}

// Get returns the source with id.
func (m *Manager) Get(id string) (Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	src, ok := m.sources[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, id)
	}
	return src, nil
}

// Sources returns the registered sources ordered by ID.
func (m *Manager) Sources() []Source {
	m.mu.RLock()
	result := make([]Source, 0, len(m.sources))
	for _, src := range m.sources {
		result = append(result, src)
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sources)
}

// Sync lists every source concurrently. A failing source does not stop the
// others; its error is reported in its SyncResult. Results are ordered by
// source ID.
func (m *Manager) Sync(ctx context.Context) []SyncResult {
	p := pool.NewWithResults[SyncResult]()
	for _, src := range m.Sources() {
		p.Go(func() SyncResult {
			return m.syncOne(ctx, src)
		})
	}

	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].SourceID < results[j].SourceID })
	return results
}

func (m *Manager) syncOne(ctx context.Context, src Source) SyncResult {
	start := time.Now()

	ctx, span := instrumentation.StartSyncSpan(ctx, src.ID())
	defer span.End()

	record := instrumentation.NewSyncRecord(src.ID()).WithSpanContext(ctx)
	if a, ok := src.(accountSource); ok {
		record.WithAccount(a.Account())
	}

	lists, err := src.ListTaskLists(ctx)
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		m.logger.Warn("source sync failed",
			slog.String("source", src.ID()),
			logging.Duration(duration),
			logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	m.metrics.RecordSync(context.WithoutCancel(ctx), src.ID(), status, duration)

	m.mu.RLock()
	audit := m.audit
	m.mu.RUnlock()
	audit.LogSync(record.Complete(len(lists), err))

	return SyncResult{SourceID: src.ID(), Lists: lists, Err: err, Duration: duration}
}

// accountSource is implemented by sources tied to a Google account.
type accountSource interface {
	Account() string
}
