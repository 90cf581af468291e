package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/todosync/internal/config"
	"github.com/teemow/todosync/internal/google"
	"github.com/teemow/todosync/internal/gtasks"
	"github.com/teemow/todosync/internal/instrumentation"
	"github.com/teemow/todosync/internal/logging"
	"github.com/teemow/todosync/internal/sources"
	"github.com/teemow/todosync/internal/tasks"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version reported by the CLI
func SetVersion(v string) {
	version = v
}

// rootOptions carries the persistent flags and what PersistentPreRunE builds from them.
type rootOptions struct {
	envFile   string
	account   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "todosync",
		Short: "Manage Google Tasks lists and tasks from the command line",
		Long: `todosync talks to the Google Tasks REST API with an already-issued
OAuth2 access token.

It can run as:
  - A one-shot CLI for task lists and tasks
  - A watcher that polls task sources and exposes Prometheus metrics`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.init(cmd)
		},
	}
	cmd.SetVersionTemplate(`{{printf "todosync version %s\n" .Version}}`)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", "", "Load settings from this .env file")
	flags.StringVar(&opts.account, "account", "", "Account whose stored token is used (default from TODOSYNC_ACCOUNT or \"default\")")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")

	cmd.AddCommand(
		newCallCmd(opts),
		newListsCmd(opts),
		newCreateListCmd(opts),
		newDeleteListCmd(opts),
		newRenameListCmd(opts),
		newTasksCmd(opts),
		newTaskCmd(opts),
		newAddTaskCmd(opts),
		newUpdateTaskCmd(opts),
		newCompleteTaskCmd(opts),
		newMoveTaskCmd(opts),
		newDeleteTaskCmd(opts),
		newClearCompletedCmd(opts),
		newTokenCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return cmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		os.Exit(1)
	}
}

func (o *rootOptions) init(cmd *cobra.Command) error {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("account") {
		cfg.Account = o.account
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	o.cfg = cfg
	o.logger = logger
	return nil
}

// service builds a call service from the configuration.
func (o *rootOptions) service(extra ...gtasks.Option) *gtasks.Service {
	opts := []gtasks.Option{
		gtasks.WithBaseURL(o.cfg.BaseURL),
		gtasks.WithSuccessPolicy(o.cfg.Policy()),
		gtasks.WithLogger(o.logger),
	}
	return gtasks.New(o.cfg.ClientID, o.cfg.ClientSecret, append(opts, extra...)...)
}

// tokenProvider prefers TODOSYNC_ACCESS_TOKEN over the stored token files.
func (o *rootOptions) tokenProvider() google.TokenProvider {
	if o.cfg.AccessToken != "" {
		return google.NewStaticTokenProvider(o.cfg.AccessToken)
	}
	if err := google.MigrateDefaultToken(); err != nil {
		o.logger.Warn("failed to migrate legacy token file", logging.Err(err))
	}
	return google.NewFileTokenProvider()
}

// tasksClient returns a client whose service already carries the account's token.
func (o *rootOptions) tasksClient(cmd *cobra.Command, metrics *instrumentation.Metrics) (*tasks.Client, error) {
	token, err := o.tokenProvider().GetTokenForAccount(cmd.Context(), o.cfg.Account)
	if err != nil {
		return nil, o.authError(err)
	}

	svc := o.service(gtasks.WithMetrics(metrics))
	svc.SetAccessToken(token.AccessToken)

	return o.newClient(svc), nil
}

func (o *rootOptions) newClient(svc *gtasks.Service) *tasks.Client {
	return tasks.NewClient(svc,
		tasks.WithRetry(o.cfg.RetryMaxElapsed),
		tasks.WithLogger(o.logger),
	)
}

// source returns the offline mock source or a Google Tasks source for the account.
func (o *rootOptions) source(mock bool, metrics *instrumentation.Metrics, listOpts tasks.ListOptions) sources.Source {
	if mock {
		return sources.NewMockSource()
	}
	client := o.newClient(o.service(gtasks.WithMetrics(metrics)))
	return sources.NewGTasksSource(o.cfg.Account, client, o.tokenProvider(),
		sources.WithListOptions(listOpts),
		sources.WithLogger(o.logger),
	)
}

func (o *rootOptions) authError(err error) error {
	if errors.Is(err, google.ErrNoToken) {
		return fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(o.cfg.Account), err)
	}
	return err
}
