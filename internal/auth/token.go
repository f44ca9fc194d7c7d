// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// RecoveryTokenBytes is the entropy of a recovery token. 32 bytes = 64 hex chars.
const RecoveryTokenBytes = 32

// RecoveryToken represents a single-use password recovery credential.
// Tokens have no time-based expiry; they stay redeemable until consumed.
type RecoveryToken struct {
	ID        ulid.ULID
	Token     string
	Email     string
	Consumed  bool
	CreatedAt time.Time
}

// NewRecoveryToken creates a validated RecoveryToken bound to an account email.
func NewRecoveryToken(email, token string) (*RecoveryToken, error) {
	if email == "" {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if token == "" {
		return nil, oops.Code("AUTH_INVALID_TOKEN").Errorf("token cannot be empty")
	}

	return &RecoveryToken{
		ID:        ulid.Make(),
		Token:     token,
		Email:     email,
		Consumed:  false,
		CreatedAt: time.Now(),
	}, nil
}

// GenerateRecoveryToken creates a cryptographically random token string.
func GenerateRecoveryToken() (string, error) {
	tokenBytes := make([]byte, RecoveryTokenBytes)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", oops.Code("RECOVERY_TOKEN_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", RecoveryTokenBytes).
			Wrap(err)
	}
	return hex.EncodeToString(tokenBytes), nil
}

// TokenRepository manages recovery token persistence.
type TokenRepository interface {
	// Create stores a new recovery token.
	Create(ctx context.Context, token *RecoveryToken) error

	// GetByToken retrieves a token by its value. Returns ErrNotFound for
	// unknown tokens; consumed tokens are returned with Consumed set.
	GetByToken(ctx context.Context, token string) (*RecoveryToken, error)

	// Redeem marks the token consumed and applies the new password hash to
	// the associated account (resetting its failure/lock state) in a single
	// transaction. Returns ErrNotFound (wrapped) if the token is unknown or
	// already consumed; when two redemptions race, exactly one succeeds.
	Redeem(ctx context.Context, token, newHash string) (*Account, error)
}
