package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/campus-planner/internal/persistence/sqlite"
)

func migrateCmd(opts *rootOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(false)
			if err != nil {
				return err
			}

			store, err := sqlite.Open(cmd.Context(), sqlite.DefaultConfig(cfg.SQLiteDSN))
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer store.Close()

			if !statusOnly {
				if err := store.Migrate(cmd.Context(), logger); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}
			}

			status, err := store.MigrationStatus(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("read migration status: %w", err)
			}

			out := cmd.OutOrStdout()
			current := status.CurrentVersion
			if current == "" {
				current = "none"
			}
			fmt.Fprintf(out, "database: %s\ncurrent version: %s\n", cfg.SQLiteDSN, current)
			for _, applied := range status.AppliedMigrations {
				fmt.Fprintf(out, "  applied %s at %s\n", applied.Version, applied.AppliedAt.Format(time.RFC3339))
			}
			for _, pending := range status.PendingMigrations {
				fmt.Fprintf(out, "  pending %s %s\n", pending.Version, pending.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only report applied and pending migrations")
	return cmd
}
