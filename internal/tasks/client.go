package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sourcegraph/conc/pool"
	tasks "google.golang.org/api/tasks/v1"

	"github.com/teemow/todosync/internal/gtasks"
)

const (
	// pageSize is the largest page the Tasks API serves.
	pageSize = 100

	defaultConcurrency = 4
)

// Client is a typed client for task lists and tasks. Every request goes
// through a gtasks.Service, so failures keep their gtasks kind.
type Client struct {
	svc         *gtasks.Service
	logger      *slog.Logger
	retry       time.Duration
	concurrency int
}

// Option configures a Client.
type Option func(*Client)

// WithRetry retries transport failures for up to maxElapsed. Zero disables retries.
func WithRetry(maxElapsed time.Duration) Option {
	return func(c *Client) {
		c.retry = maxElapsed
	}
}

// WithConcurrency limits how many task lists ListTaskListsWithTasks fetches at once.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a Client on top of svc.
func NewClient(svc *gtasks.Service, opts ...Option) *Client {
	c := &Client{
		svc:         svc,
		logger:      slog.Default(),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Service returns the underlying call service.
func (c *Client) Service() *gtasks.Service {
	return c.svc
}

// ListTaskLists lists all task lists for the authenticated user
func (c *Client) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	var (
		result    []TaskList
		pageToken string
	)

	for {
		params := []gtasks.Parameter{gtasks.NewParameter("maxResults", strconv.Itoa(pageSize))}
		if pageToken != "" {
			params = append(params, gtasks.NewParameter("pageToken", pageToken))
		}

		var page tasks.TaskLists
		if err := c.get(ctx, "users/@me/lists", params, &page); err != nil {
			return nil, fmt.Errorf("failed to list task lists: %w", err)
		}

		for _, tl := range page.Items {
			result = append(result, toTaskList(tl))
		}

		if page.NextPageToken == "" {
			return result, nil
		}
		pageToken = page.NextPageToken
	}
}

// ListTaskListsWithTasks lists all task lists and fetches the tasks of each
// list concurrently. The first failure cancels the remaining fetches.
func (c *Client) ListTaskListsWithTasks(ctx context.Context, opts ListOptions) ([]TaskList, error) {
	lists, err := c.ListTaskLists(ctx)
	if err != nil {
		return nil, err
	}

	p := pool.New().WithMaxGoroutines(c.concurrency).WithContext(ctx).WithCancelOnError()
	for i := range lists {
		p.Go(func(ctx context.Context) error {
			items, err := c.ListTasks(ctx, lists[i].ID, opts)
			if err != nil {
				return err
			}
			lists[i].Tasks = items
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}

	return lists, nil
}

// GetTaskList retrieves a specific task list by ID
func (c *Client) GetTaskList(ctx context.Context, taskListID string) (*TaskList, error) {
	var tl tasks.TaskList
	if err := c.get(ctx, listPath(taskListID), nil, &tl); err != nil {
		return nil, fmt.Errorf("failed to get task list: %w", err)
	}

	result := toTaskList(&tl)
	return &result, nil
}

// CreateTaskList creates a new task list
func (c *Client) CreateTaskList(ctx context.Context, title string) (*TaskList, error) {
	var created tasks.TaskList
	if err := c.send(ctx, http.MethodPost, "users/@me/lists", &tasks.TaskList{Title: title}, &created); err != nil {
		return nil, fmt.Errorf("failed to create task list: %w", err)
	}

	result := toTaskList(&created)
	return &result, nil
}

// DeleteTaskList deletes a task list
func (c *Client) DeleteTaskList(ctx context.Context, taskListID string) error {
	if _, err := c.do(ctx, gtasks.Request{Method: http.MethodDelete, Function: listPath(taskListID)}); err != nil {
		return fmt.Errorf("failed to delete task list: %w", err)
	}
	return nil
}

// RenameTaskList changes a task list's title
func (c *Client) RenameTaskList(ctx context.Context, taskListID, title string) (*TaskList, error) {
	var updated tasks.TaskList
	if err := c.send(ctx, http.MethodPatch, listPath(taskListID), &tasks.TaskList{Title: title}, &updated); err != nil {
		return nil, fmt.Errorf("failed to rename task list: %w", err)
	}

	result := toTaskList(&updated)
	return &result, nil
}

// ListTasks lists tasks in a task list, following pages until opts.MaxResults
// tasks were collected or the list is exhausted.
func (c *Client) ListTasks(ctx context.Context, taskListID string, opts ListOptions) ([]Task, error) {
	var (
		result    []Task
		pageToken string
	)

	for {
		limit := pageSize
		if opts.MaxResults > 0 && opts.MaxResults-len(result) < limit {
			limit = opts.MaxResults - len(result)
		}

		var page tasks.Tasks
		if err := c.get(ctx, tasksPath(taskListID), listParams(opts, limit, pageToken), &page); err != nil {
			return nil, fmt.Errorf("failed to list tasks: %w", err)
		}

		for _, t := range page.Items {
			result = append(result, toTask(t))
		}

		if opts.MaxResults > 0 && len(result) >= opts.MaxResults {
			// The service may return more items than asked for.
			return result[:opts.MaxResults], nil
		}
		if page.NextPageToken == "" {
			return result, nil
		}
		pageToken = page.NextPageToken
	}
}

// GetTask retrieves a specific task by ID
func (c *Client) GetTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	var t tasks.Task
	if err := c.get(ctx, taskPath(taskListID, taskID), nil, &t); err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	result := toTask(&t)
	return &result, nil
}

// CreateTask creates a new task. Parent and Previous place it in the hierarchy.
func (c *Client) CreateTask(ctx context.Context, taskListID string, input TaskInput) (*Task, error) {
	if input.Title == "" {
		return nil, errors.New("task title is required")
	}

	function := tasksPath(taskListID)
	query := url.Values{}
	if input.Parent != "" {
		query.Set("parent", input.Parent)
	}
	if input.Previous != "" {
		query.Set("previous", input.Previous)
	}
	if len(query) > 0 {
		function += "?" + query.Encode()
	}

	var created tasks.Task
	if err := c.send(ctx, http.MethodPost, function, toAPITask(input), &created); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	result := toTask(&created)
	return &result, nil
}

// UpdateTask patches the set fields of input onto an existing task.
// Use MoveTask to change Parent or Previous.
func (c *Client) UpdateTask(ctx context.Context, taskListID, taskID string, input TaskInput) (*Task, error) {
	patch := toAPITask(input)
	if patch.Title == "" && patch.Notes == "" && patch.Status == "" && patch.Due == "" {
		return nil, errors.New("no task fields to update")
	}

	var updated tasks.Task
	if err := c.send(ctx, http.MethodPatch, taskPath(taskListID, taskID), patch, &updated); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	result := toTask(&updated)
	return &result, nil
}

// CompleteTask marks a task as completed
func (c *Client) CompleteTask(ctx context.Context, taskListID, taskID string) (*Task, error) {
	completed := time.Now().UTC().Format(time.RFC3339)
	patch := &tasks.Task{
		Status:    StatusCompleted,
		Completed: &completed,
	}

	var updated tasks.Task
	if err := c.send(ctx, http.MethodPatch, taskPath(taskListID, taskID), patch, &updated); err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}

	result := toTask(&updated)
	return &result, nil
}

// MoveTask moves a task under parent and after previous. Empty values move
// it to the top level or the first position.
func (c *Client) MoveTask(ctx context.Context, taskListID, taskID, parent, previous string) (*Task, error) {
	var params []gtasks.Parameter
	if parent != "" {
		params = append(params, gtasks.NewParameter("parent", parent))
	}
	if previous != "" {
		params = append(params, gtasks.NewParameter("previous", previous))
	}

	body, err := c.do(ctx, gtasks.Request{
		Method:   http.MethodPost,
		Function: taskPath(taskListID, taskID) + "/move",
		Params:   params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	var moved tasks.Task
	if err := decode(body, &moved); err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	result := toTask(&moved)
	return &result, nil
}

// DeleteTask deletes a task
func (c *Client) DeleteTask(ctx context.Context, taskListID, taskID string) error {
	if _, err := c.do(ctx, gtasks.Request{Method: http.MethodDelete, Function: taskPath(taskListID, taskID)}); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// ClearCompletedTasks hides all completed tasks of a task list
func (c *Client) ClearCompletedTasks(ctx context.Context, taskListID string) error {
	function := "lists/" + url.PathEscape(taskListID) + "/clear"
	if _, err := c.do(ctx, gtasks.Request{Method: http.MethodPost, Function: function}); err != nil {
		return fmt.Errorf("failed to clear completed tasks: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, function string, params []gtasks.Parameter, out any) error {
	body, err := c.do(ctx, gtasks.Request{Method: http.MethodGet, Function: function, Params: params})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) send(ctx context.Context, method, function string, in, out any) error {
	content, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	body, err := c.do(ctx, gtasks.Request{Method: method, Function: function, Content: string(content)})
	if err != nil {
		return err
	}
	return decode(body, out)
}

func decode(body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func listParams(opts ListOptions, limit int, pageToken string) []gtasks.Parameter {
	params := []gtasks.Parameter{gtasks.NewParameter("maxResults", strconv.Itoa(limit))}
	if opts.ShowCompleted {
		params = append(params, gtasks.NewParameter("showCompleted", "true"))
	} else {
		params = append(params, gtasks.NewParameter("showCompleted", "false"))
	}
	if opts.ShowHidden {
		params = append(params, gtasks.NewParameter("showHidden", "true"))
	}
	if !opts.DueMin.IsZero() {
		params = append(params, gtasks.NewParameter("dueMin", opts.DueMin.UTC().Format(time.RFC3339)))
	}
	if !opts.DueMax.IsZero() {
		params = append(params, gtasks.NewParameter("dueMax", opts.DueMax.UTC().Format(time.RFC3339)))
	}
	if pageToken != "" {
		params = append(params, gtasks.NewParameter("pageToken", pageToken))
	}
	return params
}

func listPath(taskListID string) string {
	return "users/@me/lists/" + url.PathEscape(taskListID)
}

func tasksPath(taskListID string) string {
	return "lists/" + url.PathEscape(taskListID) + "/tasks"
}

func taskPath(taskListID, taskID string) string {
	return tasksPath(taskListID) + "/" + url.PathEscape(taskID)
}
