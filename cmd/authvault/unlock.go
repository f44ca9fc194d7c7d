// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewUnlockCmd creates the unlock subcommand.
func NewUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <email>",
		Short: "Unlock an account and reset its failure counter",
		Long: `Administratively unlock an account without a recovery token.
The failure counter is reset to zero and the lock is cleared.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			account, err := app.service.Unlock(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			cmd.Printf("Account %s unlocked\n", account.Email)
			return nil
		},
	}
}
