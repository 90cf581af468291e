package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/todosync/internal/instrumentation"
	"github.com/teemow/todosync/internal/logging"
	"github.com/teemow/todosync/internal/server"
	"github.com/teemow/todosync/internal/sources"
	"github.com/teemow/todosync/internal/tasks"
)

const defaultWatchInterval = time.Minute

type watchOptions struct {
	interval      time.Duration
	metricsAddr   string
	mock          bool
	once          bool
	showCompleted bool
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	wo := watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll task sources and log what changed",
		Long: `Poll the account's task lists at a fixed interval and log added,
removed, renamed and completed lists and tasks.

While watching, Prometheus metrics and health probes are served on
--metrics-addr (/metrics, /healthz, /readyz, /healthz/detailed).
Pass an empty address to disable the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if wo.interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", wo.interval)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runWatch(ctx, cmd.OutOrStdout(), opts, wo)
		},
	}

	cmd.Flags().DurationVar(&wo.interval, "interval", defaultWatchInterval, "Time between polls")
	cmd.Flags().StringVar(&wo.metricsAddr, "metrics-addr", server.DefaultMetricsAddr, "Address for metrics and health probes (empty disables)")
	cmd.Flags().BoolVar(&wo.mock, "mock", false, "Watch the offline mock source")
	cmd.Flags().BoolVar(&wo.once, "once", false, "Poll once, print the lists and exit")
	cmd.Flags().BoolVar(&wo.showCompleted, "show-completed", true, "Include completed tasks so completions show up as changes")

	return cmd
}

func runWatch(ctx context.Context, out io.Writer, opts *rootOptions, wo watchOptions) error {
	logger := logging.WithOperation(opts.logger, "watch")

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	manager := sources.NewManager(provider.Metrics(), logger)
	manager.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))
	src := opts.source(wo.mock, provider.Metrics(), tasks.ListOptions{
		ShowCompleted: wo.showCompleted,
		ShowHidden:    wo.showCompleted,
	})
	if err := manager.Add(src); err != nil {
		return err
	}

	health := server.NewHealthChecker()
	if wo.metricsAddr != "" && provider.Enabled() {
		metricsServer, err := startMetricsServer(provider, health, wo.metricsAddr, logger)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error shutting down metrics server", logging.Err(err))
			}
		}()
	}
	health.SetReady(true)

	w := &watcher{
		manager: manager,
		health:  health,
		logger:  logger,
		prev:    make(map[string][]sources.TaskList),
	}

	results, err := w.poll(ctx)
	if wo.once {
		for _, res := range results {
			if res.Err == nil {
				printLists(out, res.Lists)
			}
		}
		return opts.authError(err)
	}

	logger.Info("watching task sources",
		slog.Int("sources", manager.Len()),
		logging.Duration(wo.interval),
	)

	ticker := time.NewTicker(wo.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("stopping watch")
			return nil
		case <-ticker.C:
			_, _ = w.poll(ctx)
		}
	}
}

func startMetricsServer(provider *instrumentation.Provider, health *server.HealthChecker, addr string, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: provider,
		Health:                  health,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Listening first surfaces bind errors before the watch starts.
	if err := metricsServer.Listen(); err != nil {
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	}
	go func() {
		if err := metricsServer.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()

	logger.Info("metrics server started", slog.String("addr", metricsServer.Addr()))
	return metricsServer, nil
}

// watcher remembers the last successful listing per source.
type watcher struct {
	manager *sources.Manager
	health  *server.HealthChecker
	logger  *slog.Logger
	prev    map[string][]sources.TaskList
}

func (w *watcher) poll(ctx context.Context) ([]sources.SyncResult, error) {
	results := w.manager.Sync(ctx)

	var errs []error
	for _, res := range results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("source %s: %w", res.SourceID, res.Err))
			continue
		}

		logger := w.logger.With(slog.String("source", res.SourceID))
		if src, err := w.manager.Get(res.SourceID); err == nil {
			logger = logger.With(slog.String("source_name", src.Name()))
		}
		if prev, seen := w.prev[res.SourceID]; seen {
			for _, c := range diffLists(prev, res.Lists) {
				logger.Info("change",
					slog.String("kind", string(c.Kind)),
					slog.String("list", c.List),
					slog.String("task", c.Task),
					slog.String("detail", c.Detail),
				)
			}
		} else {
			logger.Info("initial sync", slog.Int("lists", len(res.Lists)))
		}
		w.prev[res.SourceID] = res.Lists
	}

	err := errors.Join(errs...)
	w.health.RecordSync(err)
	return results, err
}

type changeKind string

const (
	changeListAdded     changeKind = "list_added"
	changeListRemoved   changeKind = "list_removed"
	changeListRenamed   changeKind = "list_renamed"
	changeTaskAdded     changeKind = "task_added"
	changeTaskRemoved   changeKind = "task_removed"
	changeTaskRenamed   changeKind = "task_renamed"
	changeTaskCompleted changeKind = "task_completed"
	changeTaskReopened  changeKind = "task_reopened"
)

type change struct {
	Kind   changeKind
	List   string
	Task   string
	Detail string
}

// diffLists compares two listings of one source. Lists and tasks are matched
// by ID; the order of the result follows cur, then removals in prev order.
func diffLists(prev, cur []sources.TaskList) []change {
	var changes []change

	prevByID := make(map[string]sources.TaskList, len(prev))
	for _, l := range prev {
		prevByID[l.ID] = l
	}
	curIDs := make(map[string]bool, len(cur))

	for _, l := range cur {
		curIDs[l.ID] = true
		old, ok := prevByID[l.ID]
		if !ok {
			changes = append(changes, change{Kind: changeListAdded, List: l.Title})
			continue
		}
		if old.Title != l.Title {
			changes = append(changes, change{Kind: changeListRenamed, List: l.Title, Detail: old.Title})
		}
		changes = append(changes, diffTasks(l.Title, old.Items, l.Items)...)
	}

	for _, l := range prev {
		if !curIDs[l.ID] {
			changes = append(changes, change{Kind: changeListRemoved, List: l.Title})
		}
	}

	return changes
}

func diffTasks(list string, prev, cur []tasks.Task) []change {
	var changes []change

	prevByID := make(map[string]tasks.Task, len(prev))
	for _, t := range prev {
		prevByID[t.ID] = t
	}
	curIDs := make(map[string]bool, len(cur))

	for _, t := range cur {
		curIDs[t.ID] = true
		old, ok := prevByID[t.ID]
		if !ok {
			changes = append(changes, change{Kind: changeTaskAdded, List: list, Task: t.Title})
			continue
		}
		if old.Title != t.Title {
			changes = append(changes, change{Kind: changeTaskRenamed, List: list, Task: t.Title, Detail: old.Title})
		}
		switch {
		case !old.IsCompleted() && t.IsCompleted():
			changes = append(changes, change{Kind: changeTaskCompleted, List: list, Task: t.Title})
		case old.IsCompleted() && !t.IsCompleted():
			changes = append(changes, change{Kind: changeTaskReopened, List: list, Task: t.Title})
		}
	}

	for _, t := range prev {
		if !curIDs[t.ID] {
			changes = append(changes, change{Kind: changeTaskRemoved, List: list, Task: t.Title})
		}
	}

	return changes
}
