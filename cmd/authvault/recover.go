// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/pkg/errutil"
)

// NewRecoverCmd creates the recover subcommand with its request and
// redeem children.
func NewRecoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Request and redeem password recovery tokens",
	}

	cmd.AddCommand(newRecoverRequestCmd())
	cmd.AddCommand(newRecoverRedeemCmd())

	return cmd
}

func newRecoverRequestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "request <email>",
		Short: "Issue a single-use recovery token for an account",
		Long: `Issue a single-use recovery token. The token is printed once and
never logged; deliver it to the account holder out of band. Unknown
addresses produce no output, and no error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			token, err := app.recovery.RequestRecovery(cmd.Context(), args[0])
			if err != nil {
				errutil.LogError(app.logger, "recovery request failed", err)
				return err
			}
			if token != "" {
				cmd.Println(token)
			}
			return nil
		},
	}
}

func newRecoverRedeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <token> <new-password>",
		Short: "Redeem a recovery token and set a new password",
		Long: `Redeem a recovery token. The token is consumed, the new password
applied, and the account unlocked with its failure counter reset. A
token can be redeemed exactly once.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApplication(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			account, err := app.recovery.RedeemRecovery(cmd.Context(), args[0], args[1])
			if err != nil {
				errutil.LogError(app.logger, "recovery redemption failed", err)
				return err
			}

			cmd.Printf("Password reset for %s\n", account.Email)
			return nil
		},
	}
}
