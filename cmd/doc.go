// Package cmd implements the command-line interface for todosync.
//
// This package provides the following commands:
//   - call: Issue a raw Tasks API call and print the response body
//   - lists, create-list, delete-list, rename-list: Manage task lists
//   - tasks, task, add-task, update-task, complete-task, move-task,
//     delete-task, clear-completed: Manage tasks within a list
//   - token save/show/delete: Store an already-issued access token per account
//   - watch: Poll task sources and serve metrics and health probes
//   - version: Display version information
//
// Settings come from the environment and an optional .env file; see
// internal/config. Persistent flags override the corresponding variables.
package cmd
