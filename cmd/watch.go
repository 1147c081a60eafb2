package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newWatchCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the scheduler loop until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			next, enabled, err := app.scheduler.NextTrigger(cmd.Context())
			if err != nil {
				return err
			}
			if !enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Schedule is disabled; watching anyway (enable it with 'mzk settings set --enabled').")
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Watching; next run at %s\n", next.Format("Mon 2 Jan 15:04"))
			}

			if err := app.scheduler.Watch(cmd.Context()); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
