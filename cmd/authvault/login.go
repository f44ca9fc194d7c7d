// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/internal/auth"
	"github.com/authvault/authvault/pkg/errutil"
)

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Authenticate with email and password",
		Long: `Authenticate an account. Five consecutive failures lock the
account; a locked account rejects logins until it is unlocked or a
recovery token is redeemed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			account, err := app.service.Login(cmd.Context(), args[0], args[1])
			if err != nil {
				if errorCode(err) == "AUTH_INVALID_CREDENTIALS" {
					if remaining, remErr := app.service.AttemptsRemaining(cmd.Context(), args[0]); remErr == nil {
						cmd.Printf("Invalid credentials (%d of %d attempts remaining)\n",
							remaining, auth.MaxAttempts)
					}
				}
				errutil.LogError(app.logger, "login failed", err)
				return err
			}

			cmd.Printf("Login successful for %s\n", account.Email)
			return nil
		},
	}
}
