// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/authvault/authvault/internal/auth"
)

// TokenRepository implements auth.TokenRepository using PostgreSQL.
type TokenRepository struct {
	pool poolIface
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(pool poolIface) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// Create stores a new recovery token.
func (r *TokenRepository) Create(ctx context.Context, token *auth.RecoveryToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO recovery_tokens (id, token, email, consumed, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		token.ID.String(),
		token.Token,
		token.Email,
		token.Consumed,
		token.CreatedAt,
	)
	if err != nil {
		return oops.Code("TOKEN_CREATE_FAILED").
			With("operation", "insert recovery_token").
			With("email", token.Email).
			Wrap(err)
	}
	return nil
}

// GetByToken retrieves a recovery token by its value.
func (r *TokenRepository) GetByToken(ctx context.Context, tokenValue string) (*auth.RecoveryToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, token, email, consumed, created_at
		FROM recovery_tokens
		WHERE token = $1
	`, tokenValue)

	token, err := scanToken(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_GET_FAILED").
			With("operation", "get recovery_token").
			Wrap(err)
	}
	return token, nil
}

// Redeem consumes a token and applies the new password hash to the bound
// account in one transaction. The consumption UPDATE only matches an
// unconsumed row, so of two racing redemptions exactly one sees a row and
// the other gets ErrNotFound.
func (r *TokenRepository) Redeem(ctx context.Context, tokenValue, newHash string) (*auth.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, oops.Code("TOKEN_REDEEM_FAILED").
			With("operation", "begin transaction").
			Wrap(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var email string
	err = tx.QueryRow(ctx, `
		UPDATE recovery_tokens
		SET consumed = TRUE
		WHERE token = $1 AND NOT consumed
		RETURNING email
	`, tokenValue).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("TOKEN_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_REDEEM_FAILED").
			With("operation", "consume recovery_token").
			Wrap(err)
	}

	row := tx.QueryRow(ctx, `
		UPDATE accounts
		SET password_hash = $2, failed_attempts = 0, locked = FALSE,
		    updated_at = NOW()
		WHERE email = $1
		RETURNING id, email, password_hash, failed_attempts, locked,
		          created_at, updated_at
	`, email, newHash)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("TOKEN_REDEEM_FAILED").
			With("operation", "update account password").
			With("email", email).
			Wrap(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, oops.Code("TOKEN_REDEEM_FAILED").
			With("operation", "commit transaction").
			Wrap(err)
	}
	return account, nil
}

// scanToken scans a single row into a RecoveryToken.
// Callers are responsible for handling pgx.ErrNoRows.
func scanToken(row pgx.Row) (*auth.RecoveryToken, error) {
	var (
		idStr      string
		tokenValue string
		email      string
		consumed   bool
		createdAt  time.Time
	)

	err := row.Scan(&idStr, &tokenValue, &email, &consumed, &createdAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("TOKEN_SCAN_FAILED").
			With("operation", "scan recovery_token").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("TOKEN_INVALID_ID").
			With("operation", "parse token id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.RecoveryToken{
		ID:        id,
		Token:     tokenValue,
		Email:     email,
		Consumed:  consumed,
		CreatedAt: createdAt,
	}, nil
}

// Compile-time interface check.
var _ auth.TokenRepository = (*TokenRepository)(nil)
