package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
)

func newDepsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Manage finish-to-start dependencies between tasks",
	}
	cmd.AddCommand(newDepsAddCmd(app))
	cmd.AddCommand(newDepsRemoveCmd(app))
	cmd.AddCommand(newDepsListCmd(app))
	return cmd
}

func newDepsAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add <task-id> <predecessor-id>",
		Short: "Add a predecessor edge (rejected if it would form a cycle)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProject(app)
			if err != nil {
				return err
			}
			taskID := strings.TrimSpace(args[0])
			predID := strings.TrimSpace(args[1])

			ts, err := openTasks(cmd, app)
			if err != nil {
				return err
			}
			defer ts.Close()
			tasks, err := ts.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			idx := graph.NewIndex(tasks)
			t, ok := idx.Task(taskID)
			if !ok {
				return fmt.Errorf("task not found: %s", taskID)
			}
			if _, ok := idx.Task(predID); !ok {
				return fmt.Errorf("task not found: %s", predID)
			}
			if idx.CreatesDependencyCycle(taskID, predID) {
				return errors.New("dependency would form a cycle")
			}
			for _, p := range t.Predecessors {
				if strings.TrimSpace(p) == predID {
					return writeOut(cmd, app, map[string]any{"unchanged": taskID})
				}
			}
			preds := append(append([]string{}, t.Predecessors...), predID)
			if err := ts.UpdateTask(cmd.Context(), taskID, model.TaskPatch{Predecessors: &preds}); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"taskId": taskID, "predecessors": preds})
		},
	}
}

func newDepsRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <task-id> <predecessor-id>",
		Short: "Remove a predecessor edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProject(app)
			if err != nil {
				return err
			}
			taskID := strings.TrimSpace(args[0])
			predID := strings.TrimSpace(args[1])

			ts, err := openTasks(cmd, app)
			if err != nil {
				return err
			}
			defer ts.Close()
			tasks, err := ts.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			idx := graph.NewIndex(tasks)
			t, ok := idx.Task(taskID)
			if !ok {
				return fmt.Errorf("task not found: %s", taskID)
			}
			preds := make([]string, 0, len(t.Predecessors))
			for _, p := range t.Predecessors {
				if strings.TrimSpace(p) != predID {
					preds = append(preds, p)
				}
			}
			if len(preds) == len(t.Predecessors) {
				return writeOut(cmd, app, map[string]any{"unchanged": taskID})
			}
			if err := ts.UpdateTask(cmd.Context(), taskID, model.TaskPatch{Predecessors: &preds}); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"taskId": taskID, "predecessors": preds})
		},
	}
}

func newDepsListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <task-id>",
		Short: "List a task's predecessors and successors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProject(app)
			if err != nil {
				return err
			}
			ts, err := openTasks(cmd, app)
			if err != nil {
				return err
			}
			defer ts.Close()
			tasks, err := ts.ListTasks(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			idx := graph.NewIndex(tasks)
			t, ok := idx.Task(args[0])
			if !ok {
				return fmt.Errorf("task not found: %s", args[0])
			}
			succs := []string{}
			for _, s := range idx.SuccessorsOf(t.ID) {
				succs = append(succs, s.ID)
			}
			return writeOut(cmd, app, map[string]any{
				"taskId":       t.ID,
				"predecessors": t.Predecessors,
				"successors":   succs,
			})
		},
	}
}
