package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(app *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent run history, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := app.scheduler.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recent activity.")
				return nil
			}

			for _, entry := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", entry.Time.Format("2006-01-02 15:04"), entry.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")

	return cmd
}
