package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/campus-planner/internal/client"
)

func loginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Obtain an API token and store it for the focus commands",
		Long: `Obtain an API token and store it for the focus commands.

The password may also be supplied through CAMPUS_PASSWORD.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(false)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("CAMPUS_PASSWORD")
			}
			if strings.TrimSpace(password) == "" {
				return errors.New("a password is required")
			}

			api, err := client.New(cfg.API.BaseURL)
			if err != nil {
				return err
			}
			token, err := api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := client.SaveToken(opts.tokenPath(), token); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "logged in; token valid until %s\n", token.Expiry.Local().Format("2006-01-02 15:04"))
			fmt.Fprintln(cmd.OutOrStdout(), token.AccessToken)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
