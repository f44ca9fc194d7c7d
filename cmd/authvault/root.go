// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the AuthVault CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authvault",
		Short: "AuthVault - email/password authentication engine",
		Long: `AuthVault manages email/password accounts backed by PostgreSQL:
registration, login with lockout after repeated failures, and
single-use password recovery tokens.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Flag names mirror config keys so they overlay file values directly.
	cmd.PersistentFlags().String("database.url", "", "PostgreSQL connection URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().String("auth.hasher", "", "password hashing scheme (sha256 or argon2id)")
	cmd.PersistentFlags().String("metrics.addr", "", "metrics/health HTTP listen address")
	cmd.PersistentFlags().String("log.format", "", "log format (json or text)")
	cmd.PersistentFlags().String("log.level", "", "log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewChangePasswordCmd())
	cmd.AddCommand(NewUnlockCmd())
	cmd.AddCommand(NewRecoverCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewConsoleCmd())

	return cmd
}
