package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/todosync/internal/tasks"
)

func newTasksCmd(opts *rootOptions) *cobra.Command {
	var (
		showCompleted bool
		maxResults    int
		dueMin        string
		dueMax        string
	)

	cmd := &cobra.Command{
		Use:   "tasks LIST_ID",
		Short: "List the tasks of a task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listOpts := tasks.ListOptions{ShowCompleted: showCompleted, MaxResults: maxResults}

			var err error
			if listOpts.DueMin, err = parseDue(dueMin); err != nil {
				return err
			}
			if listOpts.DueMax, err = parseDue(dueMax); err != nil {
				return err
			}

			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			list, err := client.GetTaskList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			items, err := client.ListTasks(cmd.Context(), args[0], listOpts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", list.Title, list.ID)
			return printTasks(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().BoolVar(&showCompleted, "show-completed", false, "Include completed tasks")
	cmd.Flags().IntVar(&maxResults, "max-results", 0, "Maximum number of tasks (0 for all)")
	cmd.Flags().StringVar(&dueMin, "due-min", "", "Only tasks due at or after this date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&dueMax, "due-max", "", "Only tasks due before this date (YYYY-MM-DD or RFC3339)")

	return cmd
}

func newTaskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "task LIST_ID TASK_ID",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			t, err := client.GetTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", checkbox(*t), t.Title)
			fmt.Fprintf(w, "ID:     %s\n", t.ID)
			fmt.Fprintf(w, "Status: %s\n", t.Status)
			if !t.Due.IsZero() {
				fmt.Fprintf(w, "Due:    %s\n", t.Due.Format(time.DateOnly))
			}
			if t.Parent != "" {
				fmt.Fprintf(w, "Parent: %s\n", t.Parent)
			}
			if t.Notes != "" {
				fmt.Fprintf(w, "\n%s\n", t.Notes)
			}
			for _, link := range t.Links {
				fmt.Fprintf(w, "Link:   %s (%s)\n", link.Link, link.Description)
			}
			return nil
		},
	}
}

func newAddTaskCmd(opts *rootOptions) *cobra.Command {
	var (
		notes    string
		due      string
		parent   string
		previous string
	)

	cmd := &cobra.Command{
		Use:   "add-task LIST_ID TITLE",
		Short: "Add a task to a task list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueAt, err := parseDue(due)
			if err != nil {
				return err
			}

			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			t, err := client.CreateTask(cmd.Context(), args[0], tasks.TaskInput{
				Title:    args[1],
				Notes:    notes,
				Due:      dueAt,
				Parent:   parent,
				Previous: previous,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created task %q (%s)\n", t.Title, t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Task notes")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task ID to create a subtask")
	cmd.Flags().StringVar(&previous, "previous", "", "Sibling task ID to insert after")

	return cmd
}

func newUpdateTaskCmd(opts *rootOptions) *cobra.Command {
	var (
		title string
		notes string
		due   string
	)

	cmd := &cobra.Command{
		Use:   "update-task LIST_ID TASK_ID",
		Short: "Change the title, notes or due date of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueAt, err := parseDue(due)
			if err != nil {
				return err
			}

			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			t, err := client.UpdateTask(cmd.Context(), args[0], args[1], tasks.TaskInput{
				Title: title,
				Notes: notes,
				Due:   dueAt,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %q (%s)\n", t.Title, t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD or RFC3339)")

	return cmd
}

func newCompleteTaskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete-task LIST_ID TASK_ID",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			t, err := client.CompleteTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Completed task %q (%s)\n", t.Title, t.ID)
			return nil
		},
	}
}

func newMoveTaskCmd(opts *rootOptions) *cobra.Command {
	var parent, previous string

	cmd := &cobra.Command{
		Use:   "move-task LIST_ID TASK_ID",
		Short: "Move a task under another task or after a sibling",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			t, err := client.MoveTask(cmd.Context(), args[0], args[1], parent, previous)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Moved task %q (%s)\n", t.Title, t.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "New parent task ID (empty for top level)")
	cmd.Flags().StringVar(&previous, "previous", "", "Sibling task ID to place the task after (empty for first)")

	return cmd
}

func newDeleteTaskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-task LIST_ID TASK_ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			if err := client.DeleteTask(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[1])
			return nil
		},
	}
}

func newClearCompletedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-completed LIST_ID",
		Short: "Hide all completed tasks of a task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.tasksClient(cmd, nil)
			if err != nil {
				return err
			}

			if err := client.ClearCompletedTasks(cmd.Context(), args[0]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Cleared completed tasks of %s\n", args[0])
			return nil
		},
	}
}

func printTasks(w io.Writer, items []tasks.Task) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tDUE\tTITLE")
	for _, t := range items {
		due := "-"
		if !t.Due.IsZero() {
			due = t.Due.Format(time.DateOnly)
		}
		title := t.Title
		if t.Parent != "" {
			title = "  " + title
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, checkbox(t), due, title)
	}
	return tw.Flush()
}

// parseDue accepts a calendar date or an RFC3339 timestamp. Empty yields the zero time.
func parseDue(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	return t, nil
}
