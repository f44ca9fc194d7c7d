// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// RecoveryService issues and redeems single-use password recovery tokens.
type RecoveryService struct {
	accounts AccountRepository
	tokens   TokenRepository
	hasher   PasswordHasher
	logger   *slog.Logger
}

// NewRecoveryService creates a new RecoveryService.
func NewRecoveryService(accounts AccountRepository, tokens TokenRepository, hasher PasswordHasher) (*RecoveryService, error) {
	return NewRecoveryServiceWithLogger(accounts, tokens, hasher, slog.Default())
}

// NewRecoveryServiceWithLogger creates a new RecoveryService with an
// explicit logger.
func NewRecoveryServiceWithLogger(accounts AccountRepository, tokens TokenRepository, hasher PasswordHasher, logger *slog.Logger) (*RecoveryService, error) {
	if accounts == nil {
		return nil, oops.Errorf("accounts repository is required")
	}
	if tokens == nil {
		return nil, oops.Errorf("token repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password hasher is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &RecoveryService{accounts: accounts, tokens: tokens, hasher: hasher, logger: logger}, nil
}

// RequestRecovery issues a recovery token for an account. The token is
// generated before the account lookup so known and unknown addresses do a
// comparable amount of work. An unknown address yields an empty token and
// no error rather than a distinguishable failure.
//
// The caller is responsible for delivering the token out of band; it is
// never logged.
func (s *RecoveryService) RequestRecovery(ctx context.Context, email string) (string, error) {
	tokenValue, err := GenerateRecoveryToken()
	if err != nil {
		return "", err
	}

	if _, err := s.accounts.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "get account by email").
			Wrap(err)
	}

	token, err := NewRecoveryToken(email, tokenValue)
	if err != nil {
		return "", err
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", oops.Code("RECOVERY_REQUEST_FAILED").
			With("operation", "create token").
			Wrap(err)
	}

	s.logger.Info("recovery token issued", "email", email)
	return tokenValue, nil
}

// RedeemRecovery consumes a recovery token and applies the new password.
//
// The token is checked before the password is validated, so an invalid
// token is always reported as such even when the password is also bad. A
// redeemed token also clears the account's failure counter and lock, which
// is the only self-service path out of a lockout. Consumption and the hash
// write happen in one transaction; racing redemptions of the same token
// succeed at most once.
func (s *RecoveryService) RedeemRecovery(ctx context.Context, tokenValue, newPassword string) (*Account, error) {
	token, err := s.tokens.GetByToken(ctx, tokenValue)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("RECOVERY_INVALID_TOKEN").
				Errorf("recovery token is invalid or already used")
		}
		return nil, oops.Code("RECOVERY_REDEEM_FAILED").
			With("operation", "get token").
			Wrap(err)
	}
	if token.Consumed {
		return nil, oops.Code("RECOVERY_INVALID_TOKEN").
			Errorf("recovery token is invalid or already used")
	}

	if err := ValidatePassword(newPassword); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, oops.Code("RECOVERY_REDEEM_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := s.tokens.Redeem(ctx, tokenValue, hash)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// Lost the race against a concurrent redemption.
			return nil, oops.Code("RECOVERY_INVALID_TOKEN").
				Errorf("recovery token is invalid or already used")
		}
		return nil, oops.Code("RECOVERY_REDEEM_FAILED").
			With("operation", "redeem token").
			Wrap(err)
	}

	s.logger.Info("recovery token redeemed", "email", account.Email)
	return account, nil
}
