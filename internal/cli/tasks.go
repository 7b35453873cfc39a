package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/evcraddock/field-visits/internal/apiclient"
	"github.com/evcraddock/field-visits/internal/task"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Track follow-up tasks",
	}
	cmd.AddCommand(
		newTaskAddCmd(),
		newTaskListCmd(),
		newTaskDoneCmd(),
		newTaskRemoveCmd(),
	)
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var req apiclient.TaskRequest
	var priority string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Long: `Add a task. The due date defaults to today and the priority to medium.

Examples:
  fv task add "Send CCTV quote to Vulcan" --priority high
  fv task add "Call ICB back" --due 2026-02-12 --client 3f2a...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Title = strings.Join(args, " ")
			req.Priority = task.Priority(strings.ToLower(priority))
			return runTaskAdd(req)
		},
	}

	cmd.Flags().StringVar(&req.DueDate, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&req.RelatedClientID, "client", "", "related client ID")

	return cmd
}

func runTaskAdd(req apiclient.TaskRequest) error {
	t, err := newAPIClient().AddTask(req)
	if err != nil {
		return fmt.Errorf("adding task: %w", err)
	}
	if isJSON() {
		return printJSON(t)
	}
	fmt.Printf("Task added: %s (due %s, %s)\n", t.Title, t.DueDate, t.Priority)
	return nil
}

func newTaskListCmd() *cobra.Command {
	var urgent bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by due date and priority",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := newAPIClient().ListTasks(urgent)
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(tasks)
			}
			return printTaskTable(tasks)
		},
	}

	cmd.Flags().BoolVar(&urgent, "urgent", false, "only open high-priority tasks due today")

	return cmd
}

func newTaskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task's completion",
		Long:  "Mark an open task done, or reopen a done one.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := newAPIClient().ToggleTask(args[0])
			if err != nil {
				return err
			}
			if isJSON() {
				return printJSON(t)
			}
			if t.Completed {
				fmt.Printf("Done: %s\n", t.Title)
			} else {
				fmt.Printf("Reopened: %s\n", t.Title)
			}
			return nil
		},
	}
}

func newTaskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if err := newAPIClient().DeleteTask(id); err != nil {
				return err
			}
			if isJSON() {
				return printJSON(map[string]interface{}{"id": id, "removed": true})
			}
			fmt.Printf("Task %s removed.\n", id)
			return nil
		},
	}
}
