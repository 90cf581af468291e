// Package tasks provides a typed client for Google Tasks task lists and tasks.
//
// The client sits on top of a gtasks.Service: each operation builds one
// request, waits for the call to finish and decodes the JSON body into the
// tasks/v1 wire types before converting them into the types of this package.
// Failures keep their gtasks kind through wrapping, so callers can still test
// for a revoked token with gtasks.IsPermissionDenied.
//
// Supported operations:
//   - Task lists: list, list with tasks, get, create, rename, delete
//   - Tasks: list (with completion and due date filters), get, create,
//     update, complete, move, delete, clear completed
//
// Transport failures can be retried with exponential backoff by passing
// WithRetry. Permission and cancellation failures are returned immediately.
//
// # Example Usage
//
//	svc := gtasks.New(clientID, clientSecret)
//	svc.SetAccessToken(token)
//	client := tasks.NewClient(svc, tasks.WithRetry(30*time.Second))
//
//	lists, err := client.ListTaskListsWithTasks(ctx, tasks.ListOptions{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	task, err := client.CreateTask(ctx, lists[0].ID, tasks.TaskInput{
//	    Title: "Complete project",
//	    Due:   time.Now().AddDate(0, 0, 7),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
package tasks
