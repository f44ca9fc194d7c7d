// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/authvault/authvault/internal/auth"
	"github.com/authvault/authvault/internal/observability"
)

// NewConsoleCmd creates the console subcommand.
func NewConsoleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Run an interactive authentication console",
		Long: `Run an interactive console that accepts authentication commands on
stdin while serving Prometheus metrics and health probes over HTTP.
Type "help" at the prompt for available commands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd)
		},
	}
}

func runConsole(cmd *cobra.Command) error {
	app, err := newApplication(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if app.cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(app.cfg.Metrics.Addr, func() bool {
			return app.pool.Ping(ctx) == nil
		})
		obsErrChan, startErr := obsServer.Start()
		if startErr != nil {
			return startErr
		}
		metrics = obsServer.Metrics()
		// Monitor observability server errors - cancel context on error
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	console := &console{
		app:     app,
		metrics: metrics,
		out:     cmd.OutOrStdout(),
	}

	// Read commands in a goroutine so signals interrupt the wait
	done := make(chan struct{})
	go func() {
		defer close(done)
		console.run(ctx, cmd.InOrStdin())
	}()

	cmd.Println("AuthVault console ready (type \"help\")")

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	case <-done:
	case <-ctx.Done():
	}

	// Graceful shutdown
	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("console shutdown complete")
	return nil
}

// console dispatches interactive commands against the auth services.
type console struct {
	app     *application
	metrics *observability.Metrics
	out     io.Writer
}

func (c *console) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return
		}
		if !scanner.Scan() {
			return
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "quit" || fields[0] == "exit" {
			return
		}
		c.dispatch(ctx, fields[0], fields[1:])
	}
}

func (c *console) dispatch(ctx context.Context, command string, args []string) {
	switch command {
	case "help":
		c.printf("commands:\n" +
			"  register <email> <password>\n" +
			"  login <email> <password>\n" +
			"  status <email>\n" +
			"  change-password <email> <new-password>\n" +
			"  unlock <email>\n" +
			"  recover <email>\n" +
			"  redeem <token> <new-password>\n" +
			"  quit\n")
	case "register":
		if !c.expectArgs(args, 2, "register <email> <password>") {
			return
		}
		account, err := c.app.service.Register(ctx, args[0], args[1])
		if err != nil {
			c.reportValidation(err)
			c.printf("error: %v\n", err)
			return
		}
		c.printf("registered %s\n", account.Email)
	case "login":
		if !c.expectArgs(args, 2, "login <email> <password>") {
			return
		}
		account, err := c.app.service.Login(ctx, args[0], args[1])
		if err != nil {
			c.recordLogin(err)
			c.printf("error: %v\n", err)
			return
		}
		c.recordLogin(nil)
		c.printf("login ok for %s\n", account.Email)
	case "status":
		if !c.expectArgs(args, 1, "status <email>") {
			return
		}
		locked, err := c.app.service.IsLocked(ctx, args[0])
		if err != nil {
			c.printf("error: %v\n", err)
			return
		}
		if locked {
			c.printf("%s: locked\n", args[0])
			return
		}
		remaining, err := c.app.service.AttemptsRemaining(ctx, args[0])
		if err != nil {
			c.printf("error: %v\n", err)
			return
		}
		c.printf("%s: unlocked (%d of %d attempts remaining)\n", args[0], remaining, auth.MaxAttempts)
	case "change-password":
		if !c.expectArgs(args, 2, "change-password <email> <new-password>") {
			return
		}
		account, err := c.app.service.ChangePassword(ctx, args[0], args[1])
		if err != nil {
			c.reportValidation(err)
			c.printf("error: %v\n", err)
			return
		}
		c.printf("password changed for %s\n", account.Email)
	case "unlock":
		if !c.expectArgs(args, 1, "unlock <email>") {
			return
		}
		account, err := c.app.service.Unlock(ctx, args[0])
		if err != nil {
			c.printf("error: %v\n", err)
			return
		}
		c.printf("unlocked %s\n", account.Email)
	case "recover":
		if !c.expectArgs(args, 1, "recover <email>") {
			return
		}
		token, err := c.app.recovery.RequestRecovery(ctx, args[0])
		if err != nil {
			c.printf("error: %v\n", err)
			return
		}
		if c.metrics != nil {
			c.metrics.RecoveryRequestsTotal.Inc()
		}
		if token != "" {
			c.printf("%s\n", token)
		}
	case "redeem":
		if !c.expectArgs(args, 2, "redeem <token> <new-password>") {
			return
		}
		account, err := c.app.recovery.RedeemRecovery(ctx, args[0], args[1])
		if err != nil {
			if c.metrics != nil {
				c.metrics.RecoveryRedemptionsTotal.WithLabelValues("failure").Inc()
			}
			c.printf("error: %v\n", err)
			return
		}
		if c.metrics != nil {
			c.metrics.RecoveryRedemptionsTotal.WithLabelValues("success").Inc()
		}
		c.printf("password reset for %s\n", account.Email)
	default:
		c.printf("unknown command %q (type \"help\")\n", command)
	}
}

// recordLogin updates login metrics. A nil error is a success; the lockout
// counter only moves on the locked result.
func (c *console) recordLogin(err error) {
	if c.metrics == nil {
		return
	}
	if err == nil {
		c.metrics.LoginsTotal.WithLabelValues("success").Inc()
		return
	}
	if errorCode(err) == "AUTH_ACCOUNT_LOCKED" {
		c.metrics.LockoutsTotal.Inc()
	}
	c.metrics.LoginsTotal.WithLabelValues("failure").Inc()
}

// reportValidation records validation rejections by field.
func (c *console) reportValidation(err error) {
	switch errorCode(err) {
	case "AUTH_INVALID_EMAIL":
		observability.RecordValidationFailure("email")
	case "AUTH_INVALID_PASSWORD":
		observability.RecordValidationFailure("password")
	}
}

func (c *console) expectArgs(args []string, n int, usage string) bool {
	if len(args) != n {
		c.printf("usage: %s\n", usage)
		return false
	}
	return true
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// monitorServerErrors monitors a server's error channel and cancels the
// context on error, triggering graceful shutdown of the whole process.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
