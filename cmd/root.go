package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mzk",
		Short:         "MonZoo keeper: scheduled stock replenishment for monzoo.net",
		Long:          "mzk logs into monzoo.net, acknowledges enclosures that need attention, reads the five stock levels, tops up anything below three days of consumption, and keeps an at-most-once-per-half-day schedule across restarts.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(app),
		newWatchCmd(app),
		newStatusCmd(app),
		newHistoryCmd(app),
		newSettingsCmd(app),
		newAuthCmd(app),
	)

	return rootCmd
}
