package cli

import (
	"github.com/spf13/cobra"

	"girder-cli/internal/store"
)

func newInitCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the store directory and database",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(app)
			if err != nil {
				return err
			}
			s := store.Store{Dir: dir}
			ts, err := s.OpenTasks(cmd.Context(), logger())
			if err != nil {
				return err
			}
			defer ts.Close()
			return writeOut(cmd, app, map[string]any{"dir": dir})
		},
	}
}
