package cmd

import (
	"fmt"

	"github.com/keeperbot/monzoo-keeper/internal/domain"
	"github.com/spf13/cobra"
)

func newSettingsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or change scheduler settings",
	}

	cmd.AddCommand(newSettingsShowCmd(app), newSettingsSetCmd(app))

	return cmd
}

func newSettingsShowCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.settingsRepo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			printSettings(cmd, settings)
			return nil
		},
	}
}

func newSettingsSetCmd(app *app) *cobra.Command {
	var (
		enabled       bool
		minute        int
		morningHour   int
		afternoonHour int
		account       string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update one or more settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.settingsRepo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			changed := false
			if cmd.Flags().Changed("enabled") {
				settings.ScheduleEnabled = enabled
				changed = true
			}
			if cmd.Flags().Changed("minute") {
				settings.RunMinute = minute
				changed = true
			}
			if cmd.Flags().Changed("morning-hour") {
				settings.MorningStartHour = morningHour
				changed = true
			}
			if cmd.Flags().Changed("afternoon-hour") {
				settings.AfternoonStartHour = afternoonHour
				changed = true
			}
			if cmd.Flags().Changed("account") {
				settings.AccountName = account
				changed = true
			}

			if !changed {
				return fmt.Errorf("no settings given; see 'mzk settings set --help'")
			}

			settings = settings.Normalized()
			if err := app.settingsRepo.Save(cmd.Context(), settings); err != nil {
				return fmt.Errorf("save settings: %w", err)
			}

			printSettings(cmd, settings)
			return nil
		},
	}

	cmd.Flags().BoolVar(&enabled, "enabled", true, "Enable or disable the twice-daily schedule")
	cmd.Flags().IntVar(&minute, "minute", 10, "Minute of the hour runs trigger at")
	cmd.Flags().IntVar(&morningHour, "morning-hour", 0, "Hour the morning period opens")
	cmd.Flags().IntVar(&afternoonHour, "afternoon-hour", 14, "Hour the afternoon period opens")
	cmd.Flags().StringVar(&account, "account", "", "Site account name used for login")

	return cmd
}

func printSettings(cmd *cobra.Command, settings domain.Settings) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "schedule enabled:  %t\n", settings.ScheduleEnabled)
	fmt.Fprintf(out, "run minute:        %d\n", settings.RunMinute)
	fmt.Fprintf(out, "morning start:     %02d:00\n", settings.MorningStartHour)
	fmt.Fprintf(out, "afternoon start:   %02d:00\n", settings.AfternoonStartHour)

	account := settings.AccountName
	if account == "" {
		account = "(not set)"
	}
	fmt.Fprintf(out, "account:           %s\n", account)
}
