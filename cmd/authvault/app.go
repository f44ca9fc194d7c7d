// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/authvault/authvault/internal/auth"
	authpg "github.com/authvault/authvault/internal/auth/postgres"
	"github.com/authvault/authvault/internal/config"
	"github.com/authvault/authvault/internal/logging"
	"github.com/authvault/authvault/internal/store"
)

// application bundles the wired services for a CLI invocation.
type application struct {
	cfg      *config.Config
	pool     *pgxpool.Pool
	logger   *slog.Logger
	service  *auth.Service
	recovery *auth.RecoveryService
}

// newApplication loads configuration, connects to the database, and wires
// the auth services. Callers must Close() the returned application.
func newApplication(cmd *cobra.Command) (*application, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logging.SetDefault("authvault", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	pool, err := store.Connect(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	hasher, err := newHasher(cfg.Auth.Hasher)
	if err != nil {
		pool.Close()
		return nil, err
	}

	accounts := authpg.NewAccountRepository(pool)
	tokens := authpg.NewTokenRepository(pool)

	service, err := auth.NewServiceWithLogger(accounts, hasher, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	recovery, err := auth.NewRecoveryServiceWithLogger(accounts, tokens, hasher, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &application{
		cfg:      cfg,
		pool:     pool,
		logger:   logger,
		service:  service,
		recovery: recovery,
	}, nil
}

// Close releases the database pool.
func (a *application) Close() {
	a.pool.Close()
}

// loadConfig resolves configuration from file, flags, and environment.
// The DATABASE_URL environment variable backstops database.url.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv("DATABASE_URL")
	}
	if cfg.Database.URL == "" {
		return nil, oops.Code("CONFIG_INVALID").
			Errorf("database.url (or DATABASE_URL environment variable) is required")
	}
	return cfg, nil
}

// newHasher selects the password hashing scheme. The argon2id scheme is
// wrapped so legacy SHA-256 records keep verifying and get rehashed on
// their next successful login.
func newHasher(scheme string) (auth.PasswordHasher, error) {
	switch scheme {
	case config.HasherArgon2id:
		return auth.NewUpgradeHasher(auth.NewArgon2idHasher(), auth.NewSHA256Hasher()), nil
	case config.HasherSHA256, "":
		return auth.NewSHA256Hasher(), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("auth.hasher", scheme).
			Errorf("unknown hasher scheme: %s", scheme)
	}
}

// errorCode extracts the oops error code, or "" for plain errors.
func errorCode(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}
