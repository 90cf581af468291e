package sources

import (
	"context"

	"github.com/teemow/todosync/internal/tasks"
)

// Source is a place task lists live in.
type Source interface {
	// ID uniquely identifies the source within a Manager.
	ID() string
	// Name is a human readable label.
	Name() string
	// Online reports whether the source talks to a remote service.
	Online() bool

	// ListTaskLists returns every task list together with its tasks.
	ListTaskLists(ctx context.Context) ([]TaskList, error)
	CreateTaskList(ctx context.Context, title string) (*TaskList, error)
	DeleteTaskList(ctx context.Context, id string) error
	RenameTaskList(ctx context.Context, id, title string) (*TaskList, error)
}

// TaskList is a task list as seen through a Source.
type TaskList struct {
	ID       string
	Title    string
	SourceID string
	Items    []tasks.Task
}
