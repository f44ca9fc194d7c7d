// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/pkg/errutil"
)

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Register a new account",
		Long: `Register a new account with the given email and password.
The password must be 5-10 characters with at least one uppercase letter
and one special character.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			account, err := app.service.Register(cmd.Context(), args[0], args[1])
			if err != nil {
				errutil.LogError(app.logger, "registration failed", err)
				return err
			}

			cmd.Printf("Account %s registered\n", account.Email)
			return nil
		},
	}
}
