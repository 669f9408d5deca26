package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"girder-cli/internal/graph"
	"girder-cli/internal/model"
	"girder-cli/internal/progress"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Create, inspect and mutate schedule tasks",
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksCreateCmd(app))
	cmd.AddCommand(newTasksUpdateCmd(app))
	cmd.AddCommand(newTasksDeleteCmd(app))
	cmd.AddCommand(newTasksProgressCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tasks in the project",
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
			return writeOut(cmd, app, tasks)
		},
	}
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task, with derived fields for groups",
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
			out := map[string]any{"task": t}
			if t.IsGroup() {
				out["rollup"] = progress.ComputeGroupRollup(idx, t.ID, model.Today())
			}
			return writeOut(cmd, app, out)
		},
	}
}

func newTasksCreateCmd(app *App) *cobra.Command {
	var (
		name     string
		category string
		typ      string
		parent   string
		planFrom string
		planTo   string
		cost     float64
		quantity string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task (appended to its sibling set)",
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := requireProject(app)
			if err != nil {
				return err
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("missing --name")
			}
			t := model.Task{
				ProjectID: projectID,
				Name:      strings.TrimSpace(name),
				Category:  strings.TrimSpace(category),
				Type:      model.TaskType(strings.TrimSpace(typ)),
				PlanStart: model.Date(strings.TrimSpace(planFrom)),
				PlanEnd:   model.Date(strings.TrimSpace(planTo)),
				Cost:      cost,
				Quantity:  strings.TrimSpace(quantity),
			}
			if p := strings.TrimSpace(parent); p != "" {
				t.ParentTaskID = &p
			}
			ts, err := openTasks(cmd, app)
			if err != nil {
				return err
			}
			defer ts.Close()
			created, err := ts.CreateTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			return writeOut(cmd, app, created)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&category, "category", "", "Category label")
	cmd.Flags().StringVar(&typ, "type", "task", "Task type (task|group)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task id")
	cmd.Flags().StringVar(&planFrom, "plan-start", "", "Planned start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&planTo, "plan-end", "", "Planned end (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&cost, "cost", 0, "Cost weight")
	cmd.Flags().StringVar(&quantity, "quantity", "", "Quantity label")
	return cmd
}

func newTasksUpdateCmd(app *App) *cobra.Command {
	var (
		name     string
		planFrom string
		planTo   string
		cost     float64
	)
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Apply a partial field update to a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch model.TaskPatch
			if cmd.Flags().Changed("name") {
				v := strings.TrimSpace(name)
				patch.Name = &v
			}
			if cmd.Flags().Changed("plan-start") {
				v := model.Date(strings.TrimSpace(planFrom))
				patch.PlanStart = &v
			}
			if cmd.Flags().Changed("plan-end") {
				v := model.Date(strings.TrimSpace(planTo))
				patch.PlanEnd = &v
			}
			if cmd.Flags().Changed("cost") {
				patch.Cost = &cost
			}
			if patch.IsZero() {
				return errors.New("nothing to update")
			}
			ts, err := openTasks(cmd, app)
			if err != nil {
				return err
			}
			defer ts.Close()
			if err := ts.UpdateTask(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"updated": args[0]})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&planFrom, "plan-start", "", "Planned start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&planTo, "plan-end", "", "Planned end (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&cost, "cost", 0, "Cost weight")
	return cmd
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task (children keep their parent reference)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts, err := openTasks(cmd, app)
			if err != nil {
				return err
			}
			defer ts.Close()
			if err := ts.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"deleted": args[0]})
		},
	}
}

func newTasksProgressCmd(app *App) *cobra.Command {
	var pct int
	cmd := &cobra.Command{
		Use:   "progress <task-id>",
		Short: "Set a task's completion percentage",
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
			if t.IsGroup() {
				return errors.New("group progress is derived from descendants and cannot be set")
			}
			p := model.ClampProgress(pct)
			if err := ts.UpdateTask(cmd.Context(), t.ID, model.TaskPatch{Progress: &p}); err != nil {
				return err
			}
			return writeOut(cmd, app, map[string]any{"updated": t.ID, "progress": p})
		},
	}
	cmd.Flags().IntVar(&pct, "set", 0, "Progress percentage [0,100]")
	return cmd
}
