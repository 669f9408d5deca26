package cli

import (
	"github.com/spf13/cobra"

	"girder-cli/internal/model"
	"girder-cli/internal/progress"
	"girder-cli/internal/timeline"
)

func newScurveCmd(app *App) *cobra.Command {
	var granularity string
	var width float64
	cmd := &cobra.Command{
		Use:   "scurve",
		Short: "Print the cumulative planned/actual progress series",
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
			start, end := projectRange(tasks)
			tl := timeline.Compute(start, end, timeline.Granularity(granularity), width)
			series := progress.ComputeProgressSeries(tasks, tl, model.Today())
			return writeOut(cmd, app, map[string]any{
				"projectId": projectID,
				"weights":   progress.ComputeWeights(tasks),
				"series":    series,
			})
		},
	}
	cmd.Flags().StringVar(&granularity, "granularity", "week", "Bucket size (day|week|month)")
	cmd.Flags().Float64Var(&width, "width", 0, "Viewport width in logical units (0: no auto-fit)")
	return cmd
}

func newTimelineCmd(app *App) *cobra.Command {
	var granularity string
	var width float64
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the timeline cells and headers for the project range",
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
			start, end := projectRange(tasks)
			tl := timeline.Compute(start, end, timeline.Granularity(granularity), width)
			return writeOut(cmd, app, tl)
		},
	}
	cmd.Flags().StringVar(&granularity, "granularity", "week", "Cell size (day|week|month)")
	cmd.Flags().Float64Var(&width, "width", 0, "Viewport width in logical units (0: no auto-fit)")
	return cmd
}

// projectRange spans all plan and actual dates; timeline.Compute falls back
// to a default window when no task carries usable dates.
func projectRange(tasks []model.Task) (model.Date, model.Date) {
	var start, end model.Date
	for _, t := range tasks {
		start = model.MinDate(start, t.PlanStart)
		end = model.MaxDate(end, t.PlanEnd)
		if t.ActualStart != nil {
			start = model.MinDate(start, *t.ActualStart)
		}
		if t.ActualEnd != nil {
			end = model.MaxDate(end, *t.ActualEnd)
		}
	}
	return start, end
}
