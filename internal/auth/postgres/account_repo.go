// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

// Package postgres provides PostgreSQL implementations of auth repositories.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/authvault/authvault/internal/auth"
)

// AccountRepository implements auth.AccountRepository using PostgreSQL.
type AccountRepository struct {
	pool poolIface
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool poolIface) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create stores a new account. A unique-constraint violation on the email
// column is reported as auth.ErrDuplicateEmail.
func (r *AccountRepository) Create(ctx context.Context, account *auth.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (
			id, email, password_hash, failed_attempts, locked,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		account.ID.String(),
		account.Email,
		account.PasswordHash,
		account.FailedAttempts,
		account.Locked,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("ACCOUNT_DUPLICATE_EMAIL").
				With("email", account.Email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return oops.Code("ACCOUNT_CREATE_FAILED").
			With("operation", "insert account").
			With("email", account.Email).
			Wrap(err)
	}
	return nil
}

// GetByEmail retrieves an account by email. The lookup is case-sensitive:
// the email is the account key exactly as registered.
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, failed_attempts, locked,
		       created_at, updated_at
		FROM accounts
		WHERE email = $1
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_GET_BY_EMAIL_FAILED").
			With("operation", "get account by email").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// RecordFailedAttempt increments the failure counter and derives the lock
// state in a single UPDATE, so concurrent failures never lose an increment.
// The counter saturates at the lockout threshold.
func (r *AccountRepository) RecordFailedAttempt(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET failed_attempts = LEAST(failed_attempts + 1, $2),
		    locked = failed_attempts + 1 >= $2,
		    updated_at = NOW()
		WHERE email = $1
		RETURNING id, email, password_hash, failed_attempts, locked,
		          created_at, updated_at
	`, email, auth.MaxAttempts)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_RECORD_FAILURE_FAILED").
			With("operation", "record failed attempt").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// ResetAttempts zeroes the failure counter and clears the lock.
func (r *AccountRepository) ResetAttempts(ctx context.Context, email string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET failed_attempts = 0, locked = FALSE, updated_at = NOW()
		WHERE email = $1
		RETURNING id, email, password_hash, failed_attempts, locked,
		          created_at, updated_at
	`, email)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_RESET_ATTEMPTS_FAILED").
			With("operation", "reset attempts").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// SetPasswordHash replaces the password hash and resets the failure and
// lock state in the same UPDATE.
func (r *AccountRepository) SetPasswordHash(ctx context.Context, email, passwordHash string) (*auth.Account, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET password_hash = $2, failed_attempts = 0, locked = FALSE,
		    updated_at = NOW()
		WHERE email = $1
		RETURNING id, email, password_hash, failed_attempts, locked,
		          created_at, updated_at
	`, email, passwordHash)

	account, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("ACCOUNT_NOT_FOUND").
			With("email", email).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("ACCOUNT_SET_PASSWORD_FAILED").
			With("operation", "set password hash").
			With("email", email).
			Wrap(err)
	}
	return account, nil
}

// scanAccount scans a single row into an Account.
// Callers are responsible for handling pgx.ErrNoRows.
func scanAccount(row pgx.Row) (*auth.Account, error) {
	var (
		idStr          string
		email          string
		passwordHash   string
		failedAttempts int
		locked         bool
		createdAt      time.Time
		updatedAt      time.Time
	)

	err := row.Scan(
		&idStr,
		&email,
		&passwordHash,
		&failedAttempts,
		&locked,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("ACCOUNT_SCAN_FAILED").
			With("operation", "scan account").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("ACCOUNT_INVALID_ID").
			With("operation", "parse account id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.Account{
		ID:             id,
		Email:          email,
		PasswordHash:   passwordHash,
		FailedAttempts: failedAttempts,
		Locked:         locked,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.AccountRepository = (*AccountRepository)(nil)
