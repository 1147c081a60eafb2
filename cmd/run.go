package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/keeperbot/monzoo-keeper/internal/application"
	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/spf13/cobra"
)

const durationPrecision = time.Millisecond

func newRunCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Trigger a maintenance cycle now, bypassing the period gate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := app.scheduler.Trigger(cmd.Context(), application.ReasonManual)
			if err != nil {
				if errors.Is(err, application.ErrRunInProgress) {
					fmt.Fprintln(cmd.OutOrStdout(), "A run is already in progress; nothing to do.")
					return nil
				}
				return err
			}

			printSummary(cmd, summary)
			if !summary.OK {
				return errors.New("cycle failed")
			}
			return nil
		},
	}
}

func printSummary(cmd *cobra.Command, summary domain.CycleSummary) {
	out := cmd.OutOrStdout()

	if summary.OK {
		fmt.Fprintf(out, "Cycle succeeded in %s\n", summary.FinishedAt.Sub(summary.StartedAt).Round(durationPrecision))
	} else {
		fmt.Fprintln(out, "Cycle failed")
	}

	for _, added := range summary.ItemsAdded {
		fmt.Fprintf(out, "  bought %d %s\n", added.Amount, added.Kind)
	}
	for _, safe := range summary.ItemsSafe {
		fmt.Fprintf(out, "  %s safe: %d in stock (floor %d)\n", safe.Kind, safe.Level, safe.MinSafeLevel)
	}
	for _, message := range summary.Errors {
		fmt.Fprintf(out, "  error: %s\n", message)
	}
}
