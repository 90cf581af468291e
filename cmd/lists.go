package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teemow/todosync/internal/sources"
	"github.com/teemow/todosync/internal/tasks"
)

func newListsCmd(opts *rootOptions) *cobra.Command {
	var (
		mock          bool
		showCompleted bool
	)

	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show all task lists with their tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src := opts.source(mock, nil, tasks.ListOptions{ShowCompleted: showCompleted})

			lists, err := src.ListTaskLists(cmd.Context())
			if err != nil {
				return opts.authError(err)
			}

			printLists(cmd.OutOrStdout(), lists)
			return nil
		},
	}

	cmd.Flags().BoolVar(&mock, "mock", false, "Use the offline mock source")
	cmd.Flags().BoolVar(&showCompleted, "show-completed", false, "Include completed tasks")

	return cmd
}

func newCreateListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create-list TITLE",
		Short: "Create a task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.source(false, nil, tasks.ListOptions{}).CreateTaskList(cmd.Context(), args[0])
			if err != nil {
				return opts.authError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task list %q (%s)\n", list.Title, list.ID)
			return nil
		},
	}
}

func newDeleteListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-list LIST_ID",
		Short: "Delete a task list and all its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.source(false, nil, tasks.ListOptions{}).DeleteTaskList(cmd.Context(), args[0]); err != nil {
				return opts.authError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task list %s\n", args[0])
			return nil
		},
	}
}

func newRenameListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename-list LIST_ID TITLE",
		Short: "Rename a task list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := opts.source(false, nil, tasks.ListOptions{}).RenameTaskList(cmd.Context(), args[0], args[1])
			if err != nil {
				return opts.authError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed task list %s to %q\n", list.ID, list.Title)
			return nil
		},
	}
}

func printLists(w io.Writer, lists []sources.TaskList) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "No task lists.")
		return
	}

	for i, l := range lists {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%s)\n", l.Title, l.ID)
		for _, t := range l.Items {
			fmt.Fprintf(w, "  %s %s\n", checkbox(t), t.Title)
		}
	}
}

func checkbox(t tasks.Task) string {
	if t.IsCompleted() {
		return "[x]"
	}
	return "[ ]"
}
