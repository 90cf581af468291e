package tasks

import (
	"time"

	tasks "google.golang.org/api/tasks/v1"
)

// Task status values used by the Tasks API.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// TaskList represents a Google Tasks task list
type TaskList struct {
	ID      string
	Title   string
	Updated time.Time

	// Tasks is only populated by ListTaskListsWithTasks.
	Tasks []Task
}

// Task represents a Google Tasks task
type Task struct {
	ID        string
	Title     string
	Notes     string
	Status    string // "needsAction" or "completed"
	Due       time.Time
	Completed time.Time
	Updated   time.Time
	Parent    string // Parent task ID for subtasks
	Position  string // Position in the list
	Hidden    bool
	Links     []Link // Related links
}

// IsCompleted reports whether the task has been checked off.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Link represents a related link in a task
type Link struct {
	Type        string // "email" or other types
	Description string
	Link        string
}

// TaskInput represents the input for creating or updating a task.
// Zero fields are left untouched on update.
type TaskInput struct {
	Title    string
	Notes    string
	Status   string // "needsAction" or "completed"
	Due      time.Time
	Parent   string // Parent task ID for subtasks
	Previous string // Previous sibling task ID for positioning
}

// ListOptions filters ListTasks.
type ListOptions struct {
	ShowCompleted bool
	ShowHidden    bool
	DueMin        time.Time
	DueMax        time.Time

	// MaxResults caps the number of tasks returned. Zero fetches every page.
	MaxResults int
}

func toTaskList(tl *tasks.TaskList) TaskList {
	if tl == nil {
		return TaskList{}
	}

	return TaskList{
		ID:      tl.Id,
		Title:   tl.Title,
		Updated: parseTime(tl.Updated),
	}
}

func toTask(t *tasks.Task) Task {
	if t == nil {
		return Task{}
	}

	result := Task{
		ID:       t.Id,
		Title:    t.Title,
		Notes:    t.Notes,
		Status:   t.Status,
		Due:      parseTime(t.Due),
		Updated:  parseTime(t.Updated),
		Parent:   t.Parent,
		Position: t.Position,
		Hidden:   t.Hidden,
	}

	if t.Completed != nil {
		result.Completed = parseTime(*t.Completed)
	}

	if len(t.Links) > 0 {
		result.Links = make([]Link, len(t.Links))
		for i, link := range t.Links {
			result.Links[i] = Link{
				Type:        link.Type,
				Description: link.Description,
				Link:        link.Link,
			}
		}
	}

	return result
}

// toAPITask builds the patch body for input. Only set fields are sent.
func toAPITask(input TaskInput) *tasks.Task {
	t := &tasks.Task{
		Title:  input.Title,
		Notes:  input.Notes,
		Status: input.Status,
	}
	if !input.Due.IsZero() {
		t.Due = input.Due.UTC().Format(time.RFC3339)
	}
	return t
}

// parseTime returns the zero time for empty or malformed timestamps.
func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
