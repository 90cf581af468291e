package sources

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/teemow/todosync/internal/tasks"
)

// MockID is the ID of every MockSource.
const MockID = "mock"

// MockSource is an offline Source holding task lists in memory. It starts
// with two sample lists.
type MockSource struct {
	mu    sync.Mutex
	lists []TaskList
}

func NewMockSource() *MockSource {
	return &MockSource{
		lists: []TaskList{
			mockList("mock-list-1", "Test List 1", "Item 1", "Item 2"),
			mockList("mock-list-2", "Test List 2", "Item 3", "Item 4"),
		},
	}
}

func mockList(id, title string, items ...string) TaskList {
	list := TaskList{ID: id, Title: title, SourceID: MockID, Items: make([]tasks.Task, len(items))}
	for i, item := range items {
		list.Items[i] = tasks.Task{
			ID:     fmt.Sprintf("%s-item-%d", id, i+1),
			Title:  item,
			Status: tasks.StatusNeedsAction,
		}
	}
	return list
}

func (m *MockSource) ID() string   { return MockID }
func (m *MockSource) Name() string { return "MockSource" }
func (m *MockSource) Online() bool { return false }

// ListTaskLists returns a copy of the lists.
func (m *MockSource) ListTaskLists(ctx context.Context) ([]TaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]TaskList, len(m.lists))
	for i, l := range m.lists {
		result[i] = l
		result[i].Items = append([]tasks.Task(nil), l.Items...)
	}
	return result, nil
}

func (m *MockSource) CreateTaskList(ctx context.Context, title string) (*TaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	list := TaskList{ID: "mock-" + uuid.NewString(), Title: title, SourceID: MockID, Items: []tasks.Task{}}
	m.lists = append(m.lists, list)
	return &list, nil
}

func (m *MockSource) DeleteTaskList(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return fmt.Errorf("task list %s not found", id)
	}
	m.lists = append(m.lists[:i], m.lists[i+1:]...)
	return nil
}

func (m *MockSource) RenameTaskList(ctx context.Context, id, title string) (*TaskList, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("task list %s not found", id)
	}
	m.lists[i].Title = title

	list := m.lists[i]
	list.Items = append([]tasks.Task(nil), list.Items...)
	return &list, nil
}

func (m *MockSource) indexOf(id string) int {
	for i, l := range m.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}
