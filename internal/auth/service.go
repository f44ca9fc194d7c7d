// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Service provides registration, login, and account-state operations.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewService creates a new Service.
func NewService(accounts AccountRepository, hasher PasswordHasher) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, slog.Default())
}

// NewServiceWithLogger creates a new Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{accounts: accounts, hasher: hasher, logger: logger}, nil
}

// Register validates the email and password (in that order), hashes the
// password, and creates the account with a zeroed failure counter.
// A duplicate email is surfaced distinctly to the caller; this is a known
// enumeration signal inherited from the system's documented behavior.
func (s *Service) Register(ctx context.Context, email, password string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, hash)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				Errorf("email is already registered")
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	s.logger.Info("account registered", "email", account.Email)
	return account, nil
}

// Login authenticates an account and returns its updated state.
//
// A locked account is rejected before the candidate password is hashed or
// compared, so a locked response never reveals whether the password was
// correct. On mismatch the failed attempt is recorded atomically; when that
// attempt causes the lockout transition, the locked reason is returned
// instead of invalid credentials.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_UNKNOWN_ACCOUNT").Errorf("account not found")
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	if account.IsLocked() {
		return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
			Errorf("account is locked after too many failed attempts")
	}

	valid, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(err)
	}

	if !valid {
		updated, recordErr := s.accounts.RecordFailedAttempt(ctx, email)
		if recordErr != nil {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "record failed attempt").
				Wrap(recordErr)
		}
		if updated.Locked {
			s.logger.Info("account locked", "email", email, "failed_attempts", updated.FailedAttempts)
			return nil, oops.Code("AUTH_ACCOUNT_LOCKED").
				Errorf("account is locked after too many failed attempts")
		}
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").
			With("attempts_remaining", AttemptsRemaining(updated.FailedAttempts)).
			Errorf("invalid email or password")
	}

	// Rehash under the active scheme when the stored hash predates it.
	// Login must still succeed if the upgrade write fails.
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if updated, setErr := s.accounts.SetPasswordHash(ctx, email, newHash); setErr == nil {
				return updated, nil
			}
			s.logger.Warn("password hash upgrade failed", "email", email)
		}
	}

	updated, err := s.accounts.ResetAttempts(ctx, email)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "reset attempts").
			Wrap(err)
	}
	return updated, nil
}

// AttemptsRemaining returns how many login attempts remain before lockout,
// clamped to zero, for display purposes.
func (s *Service) AttemptsRemaining(ctx context.Context, email string) (int, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, oops.Code("AUTH_UNKNOWN_ACCOUNT").Errorf("account not found")
		}
		return 0, oops.Code("AUTH_STATUS_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	if account.Locked {
		return 0, nil
	}
	return AttemptsRemaining(account.FailedAttempts), nil
}

// IsLocked reports whether the account is currently locked.
func (s *Service) IsLocked(ctx context.Context, email string) (bool, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, oops.Code("AUTH_UNKNOWN_ACCOUNT").Errorf("account not found")
		}
		return false, oops.Code("AUTH_STATUS_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}
	return account.Locked, nil
}

// ChangePassword validates and applies a new password for an account.
// The failure counter and lock are reset along with the hash.
func (s *Service) ChangePassword(ctx context.Context, email, newPassword string) (*Account, error) {
	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	updated, err := s.accounts.SetPasswordHash(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_UNKNOWN_ACCOUNT").Errorf("account not found")
		}
		return nil, oops.Code("AUTH_CHANGE_PASSWORD_FAILED").
			With("operation", "set password hash").
			Wrap(err)
	}
	return updated, nil
}

// Unlock resets the failure counter and clears the lock without requiring
// a recovery token. Administrative operation.
func (s *Service) Unlock(ctx context.Context, email string) (*Account, error) {
	updated, err := s.accounts.ResetAttempts(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("AUTH_UNKNOWN_ACCOUNT").Errorf("account not found")
		}
		return nil, oops.Code("AUTH_UNLOCK_FAILED").
			With("operation", "reset attempts").
			Wrap(err)
	}
	s.logger.Info("account unlocked", "email", email)
	return updated, nil
}
