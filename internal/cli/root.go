package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"girder-cli/internal/format"
	"girder-cli/internal/prefs"
	"girder-cli/internal/store"
	"girder-cli/internal/tui"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	ProjectID  string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "girder",
		Short:        "Construction schedule (Gantt) CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive schedule board
  girder

  # Scriptable commands
  girder tasks list --project site-a
  girder scurve --project site-a --granularity week
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive board.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("GIRDER_DIR", ""), "Path to store dir (default: nearest .girder, else ./.girder)")
	cmd.PersistentFlags().StringVar(&app.ProjectID, "project", envOr("GIRDER_PROJECT", ""), "Project id")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("GIRDER_FORMAT", "json"), "Output format (json)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newDepsCmd(app))
	cmd.AddCommand(newTimelineCmd(app))
	cmd.AddCommand(newScurveCmd(app))

	return cmd
}

func runTUI(app *App) error {
	dir, err := resolveDir(app)
	if err != nil {
		return err
	}
	s := store.Store{Dir: dir}
	ts, err := s.OpenTasks(context.Background(), logger())
	if err != nil {
		return err
	}
	defer ts.Close()
	return tui.Run(ts, prefs.FileStore{Dir: dir}, app.ProjectID)
}

func resolveDir(app *App) (string, error) {
	if strings.TrimSpace(app.Dir) != "" {
		abs, err := filepath.Abs(app.Dir)
		if err != nil {
			return "", err
		}
		app.Dir = abs
		return abs, nil
	}
	dir, err := store.DefaultDir()
	if err != nil {
		return "", err
	}
	app.Dir = dir
	return dir, nil
}

func openTasks(cmd *cobra.Command, app *App) (*store.TaskStore, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, err
	}
	s := store.Store{Dir: dir}
	return s.OpenTasks(cmd.Context(), logger())
}

func requireProject(app *App) (string, error) {
	p := strings.TrimSpace(app.ProjectID)
	if p == "" {
		return "", fmt.Errorf("no project selected; pass --project or set GIRDER_PROJECT")
	}
	return p, nil
}

func logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}
