package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the stored site credential",
	}

	cmd.AddCommand(newAuthSetCmd(app), newAuthRemoveCmd(app))

	return cmd
}

func newAuthSetCmd(app *app) *cobra.Command {
	var (
		account  string
		password string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store the site password in the credential vault",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.settingsRepo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			if cmd.Flags().Changed("account") {
				settings.AccountName = account
				if err := app.settingsRepo.Save(cmd.Context(), settings.Normalized()); err != nil {
					return fmt.Errorf("save settings: %w", err)
				}
			}

			secret := password
			if secret == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				secret = strings.TrimRight(line, "\r\n")
			}
			if secret == "" {
				return fmt.Errorf("password must not be empty")
			}

			if err := app.secretStore.Put(cmd.Context(), settings.VaultKey(), secret); err != nil {
				return fmt.Errorf("store credential: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Credential stored under %s\n", settings.VaultKey())
			return nil
		},
	}

	cmd.Flags().StringVar(&account, "account", "", "Site account name, also saved to settings")
	cmd.Flags().StringVar(&password, "password", "", "Password value; prompted for when omitted")

	return cmd
}

func newAuthRemoveCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove",
		Short: "Delete the stored site password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := app.settingsRepo.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load settings: %w", err)
			}

			if err := app.secretStore.Delete(cmd.Context(), settings.VaultKey()); err != nil {
				return fmt.Errorf("remove credential: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Credential removed for %s\n", settings.VaultKey())
			return nil
		},
	}
}
