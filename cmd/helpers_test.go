package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/todosync/internal/gtasks"
	"github.com/teemow/todosync/internal/sources"
	"github.com/teemow/todosync/internal/tasks"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []gtasks.Parameter
		wantErr  bool
	}{
		{
			name:     "none",
			input:    nil,
			expected: []gtasks.Parameter{},
		},
		{
			name:  "keeps order and duplicates",
			input: []string{"b=2", "a=1", "b=3"},
			expected: []gtasks.Parameter{
				gtasks.NewParameter("b", "2"),
				gtasks.NewParameter("a", "1"),
				gtasks.NewParameter("b", "3"),
			},
		},
		{
			name:     "value may contain equals",
			input:    []string{"q=a=b"},
			expected: []gtasks.Parameter{gtasks.NewParameter("q", "a=b")},
		},
		{
			name:     "empty value",
			input:    []string{"pageToken="},
			expected: []gtasks.Parameter{gtasks.NewParameter("pageToken", "")},
		},
		{
			name:    "missing equals",
			input:   []string{"maxResults"},
			wantErr: true,
		},
		{
			name:    "missing name",
			input:   []string{"=5"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseParams(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseDue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{name: "empty", input: "", expected: time.Time{}},
		{name: "date", input: "2025-03-01", expected: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: "2025-03-01T10:30:00Z", expected: time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)},
		{name: "garbage", input: "next week", wantErr: true},
		{name: "us date", input: "03/01/2025", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDue(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}
}

func TestReadToken(t *testing.T) {
	token, err := readToken(strings.NewReader("\n\n  abc \nsecond\n"))
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = readToken(strings.NewReader("   \n"))
	assert.Error(t, err)
}

func TestPrintLists_Empty(t *testing.T) {
	var buf bytes.Buffer
	printLists(&buf, nil)
	assert.Equal(t, "No task lists.\n", buf.String())
}

func TestPrintTasks_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTasks(&buf, nil))
	assert.Equal(t, "No tasks.\n", buf.String())
}

func task(id, title, status string) tasks.Task {
	return tasks.Task{ID: id, Title: title, Status: status}
}

func TestDiffLists(t *testing.T) {
	prev := []sources.TaskList{
		{ID: "l1", Title: "Groceries", Items: []tasks.Task{
			task("t1", "Milk", tasks.StatusNeedsAction),
			task("t2", "Eggs", tasks.StatusNeedsAction),
			task("t3", "Bread", tasks.StatusCompleted),
			task("t4", "Butter", tasks.StatusNeedsAction),
		}},
		{ID: "l2", Title: "Work"},
	}
	cur := []sources.TaskList{
		{ID: "l1", Title: "Shopping", Items: []tasks.Task{
			task("t1", "Milk", tasks.StatusCompleted),
			task("t2", "Free range eggs", tasks.StatusNeedsAction),
			task("t3", "Bread", tasks.StatusNeedsAction),
			task("t5", "Cheese", tasks.StatusNeedsAction),
		}},
		{ID: "l3", Title: "Home"},
	}

	assert.Equal(t, []change{
		{Kind: changeListRenamed, List: "Shopping", Detail: "Groceries"},
		{Kind: changeTaskCompleted, List: "Shopping", Task: "Milk"},
		{Kind: changeTaskRenamed, List: "Shopping", Task: "Free range eggs", Detail: "Eggs"},
		{Kind: changeTaskReopened, List: "Shopping", Task: "Bread"},
		{Kind: changeTaskAdded, List: "Shopping", Task: "Cheese"},
		{Kind: changeTaskRemoved, List: "Shopping", Task: "Butter"},
		{Kind: changeListAdded, List: "Home"},
		{Kind: changeListRemoved, List: "Work"},
	}, diffLists(prev, cur))
}

func TestDiffLists_Unchanged(t *testing.T) {
	lists := []sources.TaskList{
		{ID: "l1", Title: "Groceries", Items: []tasks.Task{task("t1", "Milk", tasks.StatusNeedsAction)}},
	}
	assert.Empty(t, diffLists(lists, lists))
}
