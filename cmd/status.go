package cmd

import (
	"encoding/json"
	"fmt"

	statusadapter "github.com/keeperbot/monzoo-keeper/internal/adapters/render/status"
	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show schedule state, next trigger and recent activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.settingsRepo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}
			state, err := app.stateRepo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load run state: %w", err)
			}
			next, _, err := app.scheduler.NextTrigger(cmd.Context())
			if err != nil {
				return err
			}

			view := statusadapter.View{
				Running:         app.scheduler.Running(),
				ScheduleEnabled: settings.ScheduleEnabled,
				AccountName:     settings.AccountName,
				NextTrigger:     next,
				LastMorning:     state.LastRunFor(domain.PeriodMorning),
				LastAfternoon:   state.LastRunFor(domain.PeriodAfternoon),
				History:         state.History,
				Now:             app.now(),
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			rendered, err := app.renderer(view)
			if err != nil {
				return fmt.Errorf("render status: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output machine-readable JSON")

	return cmd
}
