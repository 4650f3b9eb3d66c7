package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/gregtusar/pairs/api"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), nil)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Server.AuthSecret == "" {
				return errors.New("server.auth_secret is not configured")
			}

			token, err := api.IssueToken([]byte(cfg.Server.AuthSecret), subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "pairs-cli", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")

	return cmd
}
