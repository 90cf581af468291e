package google

import tasks "google.golang.org/api/tasks/v1"

// TasksScope grants read and write access to Google Tasks.
const TasksScope = tasks.TasksScope

// DefaultOAuthScopes are the scopes a saved token needs for every todosync operation.
var DefaultOAuthScopes = []string{
	TasksScope,
}
