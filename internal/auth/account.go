// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Account represents a user account keyed by email.
type Account struct {
	ID             ulid.ULID
	Email          string
	PasswordHash   string
	FailedAttempts int
	Locked         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewAccount creates a validated Account with a fresh ID and zeroed
// failure state. The email must already be validated and the password
// already hashed; this constructor only guards against empty fields.
func NewAccount(email, passwordHash string) (*Account, error) {
	if email == "" {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}

	now := time.Now()
	return &Account{
		ID:             ulid.Make(),
		Email:          email,
		PasswordHash:   passwordHash,
		FailedAttempts: 0,
		Locked:         false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// IsLocked returns true if the account is locked out.
func (a *Account) IsLocked() bool {
	return a.Locked
}

// RecordFailure increments the failure counter and derives the locked flag.
// The counter never exceeds MaxAttempts.
func (a *Account) RecordFailure() {
	if a.FailedAttempts < MaxAttempts {
		a.FailedAttempts++
	}
	a.Locked = IsLockedOut(a.FailedAttempts)
	a.UpdatedAt = time.Now()
}

// RecordSuccess resets the failure counter and clears the lock.
func (a *Account) RecordSuccess() {
	a.FailedAttempts = 0
	a.Locked = false
	a.UpdatedAt = time.Now()
}

// AccountRepository manages account persistence. Implementations must use
// parameterized queries only and make each mutation atomic with respect to
// concurrent callers acting on the same email.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicateEmail (wrapped) if
	// the email is already registered.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an account by its exact email (case-sensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// RecordFailedAttempt atomically increments failed_attempts (capped at
	// MaxAttempts), recomputes the locked flag, and returns the updated
	// account. Two racing calls must both be reflected in the counter.
	RecordFailedAttempt(ctx context.Context, email string) (*Account, error)

	// ResetAttempts atomically sets failed_attempts to zero and clears the
	// locked flag.
	ResetAttempts(ctx context.Context, email string) (*Account, error)

	// SetPasswordHash atomically replaces the password hash and resets the
	// failure/lock state.
	SetPasswordHash(ctx context.Context, email, newHash string) (*Account, error)
}
