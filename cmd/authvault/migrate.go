// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"strconv"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/internal/store"
)

// NewMigrateCmd creates the migrate subcommand with its children.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database schema migrations",
	}

	cmd.AddCommand(newMigrateUpCmd())
	cmd.AddCommand(newMigrateDownCmd())
	cmd.AddCommand(newMigrateStatusCmd())
	cmd.AddCommand(newMigrateForceCmd())

	return cmd
}

// newMigrator resolves the database URL and opens a Migrator.
func newMigrator(cmd *cobra.Command) (*store.Migrator, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return store.NewMigrator(cfg.Database.URL)
}

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is non-actionable after Up

			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("No pending migrations")
				return nil
			}

			if err := m.Up(); err != nil {
				return err
			}
			cmd.Printf("Applied %d migration(s)\n", len(pending))
			return nil
		},
	}
}

func newMigrateDownCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations (destructive)",
		Long: `Roll back all migrations to version 0. This drops all tables and
data; requires --yes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !confirm {
				return oops.Code("CONFIRMATION_REQUIRED").
					Errorf("migrate down is destructive; re-run with --yes to confirm")
			}

			m, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is non-actionable after Down

			if err := m.Down(); err != nil {
				return err
			}
			cmd.Println("All migrations rolled back")
			return nil
		},
	}

	cmd.Flags().BoolVar(&confirm, "yes", false, "confirm the destructive rollback")
	return cmd
}

func newMigrateStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current migration version and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is non-actionable for status

			version, dirty, err := m.Version()
			if err != nil {
				return err
			}

			if version == 0 {
				cmd.Println("Version: none (no migrations applied)")
			} else {
				name, nameErr := store.MigrationName(version)
				if nameErr != nil || name == "" {
					cmd.Printf("Version: %d\n", version)
				} else {
					cmd.Printf("Version: %d (%s)\n", version, name)
				}
			}
			if dirty {
				cmd.Println("State: DIRTY - a migration failed partway; fix the database and use 'migrate force'")
			}

			pending, err := m.PendingMigrations()
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				cmd.Println("Pending: none")
				return nil
			}
			for _, v := range pending {
				name, nameErr := store.MigrationName(v)
				if nameErr != nil || name == "" {
					cmd.Printf("Pending: %d\n", v)
				} else {
					cmd.Printf("Pending: %d (%s)\n", v, name)
				}
			}
			return nil
		},
	}
}

func newMigrateForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Set the migration version without running migrations",
		Long: `Set the migration version without running migrations. Use only to
recover from a dirty state after manually fixing the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil || version < 0 {
				return oops.Code("INVALID_VERSION").
					Errorf("version must be a non-negative integer, got %q", args[0])
			}

			m, err := newMigrator(cmd)
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck // close error is non-actionable after Force

			if err := m.Force(version); err != nil {
				return err
			}
			cmd.Printf("Forced migration version to %d\n", version)
			return nil
		},
	}
}
