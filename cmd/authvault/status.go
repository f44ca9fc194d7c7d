// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/internal/auth"
)

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <email>",
		Short: "Show lock state and remaining login attempts for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			locked, err := app.service.IsLocked(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if locked {
				cmd.Printf("%s: locked\n", args[0])
				return nil
			}

			remaining, err := app.service.AttemptsRemaining(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Printf("%s: unlocked (%d of %d attempts remaining)\n",
				args[0], remaining, auth.MaxAttempts)
			return nil
		},
	}
}
