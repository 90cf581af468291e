package sources

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/todosync/internal/google"
	"github.com/teemow/todosync/internal/gtasks"
	"github.com/teemow/todosync/internal/logging"
	"github.com/teemow/todosync/internal/tasks"
)

// GTasksSource is a Source backed by a Google Tasks account.
//
// It authenticates lazily: the first operation fetches an access token from
// the TokenProvider and sets it on the underlying service, later operations
// reuse it. A permission-denied outcome drops the token so the next
// operation asks the provider again.
type GTasksSource struct {
	account  string
	name     string
	client   *tasks.Client
	provider google.TokenProvider
	opts     tasks.ListOptions
	logger   *slog.Logger

	mu            sync.Mutex
	authenticated bool
}

// GTasksOption configures a GTasksSource.
type GTasksOption func(*GTasksSource)

// WithName overrides the display name.
func WithName(name string) GTasksOption {
	return func(s *GTasksSource) {
		if name != "" {
			s.name = name
		}
	}
}

// WithListOptions sets the filters used when fetching the tasks of each list.
func WithListOptions(opts tasks.ListOptions) GTasksOption {
	return func(s *GTasksSource) {
		s.opts = opts
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GTasksOption {
	return func(s *GTasksSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGTasksSource creates a source for account. client's service receives
// the token obtained from provider.
func NewGTasksSource(account string, client *tasks.Client, provider google.TokenProvider, opts ...GTasksOption) *GTasksSource {
	s := &GTasksSource{
		account:  account,
		name:     "Google Tasks (" + account + ")",
		client:   client,
		provider: provider,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.WithAccount(s.logger, account)
	return s
}

// ID returns "gtasks:<account>".
func (s *GTasksSource) ID() string {
	return "gtasks:" + s.account
}

// Account returns the account whose token the source uses.
func (s *GTasksSource) Account() string {
	return s.account
}

func (s *GTasksSource) Name() string {
	return s.name
}

func (s *GTasksSource) Online() bool {
	return true
}

// Authenticated reports whether a token has been obtained and not invalidated.
func (s *GTasksSource) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *GTasksSource) authenticate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.authenticated {
		return nil
	}

	token, err := s.provider.GetTokenForAccount(ctx, s.account)
	if err != nil {
		return fmt.Errorf("failed to authenticate account %s: %w", s.account, err)
	}

	s.client.Service().SetAccessToken(token.AccessToken)
	s.authenticated = true
	s.logger.Debug("obtained access token", slog.String("token", logging.SanitizeToken(token.AccessToken)))

	return nil
}

// check drops the token after a permission-denied outcome.
func (s *GTasksSource) check(err error) error {
	if err == nil || !gtasks.IsPermissionDenied(err) {
		return err
	}

	s.mu.Lock()
	s.authenticated = false
	s.mu.Unlock()

	s.logger.Warn("access token rejected, will re-authenticate", logging.Err(err))
	return err
}

// ListTaskLists fetches all lists and their tasks.
func (s *GTasksSource) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}

	lists, err := s.client.ListTaskListsWithTasks(ctx, s.opts)
	if err != nil {
		return nil, s.check(err)
	}

	result := make([]TaskList, len(lists))
	for i, l := range lists {
		result[i] = s.toList(l)
	}
	return result, nil
}

func (s *GTasksSource) CreateTaskList(ctx context.Context, title string) (*TaskList, error) {
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}

	created, err := s.client.CreateTaskList(ctx, title)
	if err != nil {
		return nil, s.check(err)
	}

	list := s.toList(*created)
	return &list, nil
}

func (s *GTasksSource) DeleteTaskList(ctx context.Context, id string) error {
	if err := s.authenticate(ctx); err != nil {
		return err
	}
	return s.check(s.client.DeleteTaskList(ctx, id))
}

func (s *GTasksSource) RenameTaskList(ctx context.Context, id, title string) (*TaskList, error) {
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}

	updated, err := s.client.RenameTaskList(ctx, id, title)
	if err != nil {
		return nil, s.check(err)
	}

	list := s.toList(*updated)
	return &list, nil
}

func (s *GTasksSource) toList(l tasks.TaskList) TaskList {
	items := l.Tasks
	if items == nil {
		items = []tasks.Task{}
	}
	return TaskList{
		ID:       l.ID,
		Title:    l.Title,
		SourceID: s.ID(),
		Items:    items,
	}
}
