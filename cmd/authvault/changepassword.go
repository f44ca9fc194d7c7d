// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/pkg/errutil"
)

// NewChangePasswordCmd creates the change-password subcommand.
func NewChangePasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "change-password <email> <new-password>",
		Short: "Set a new password for an account",
		Long: `Set a new password for an existing account. The new password is
validated against policy; applying it also resets the failure counter
and clears any lock.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			account, err := app.service.ChangePassword(cmd.Context(), args[0], args[1])
			if err != nil {
				errutil.LogError(app.logger, "change password failed", err)
				return err
			}

			cmd.Printf("Password changed for %s\n", account.Email)
			return nil
		},
	}
}
