// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/authvault/authvault/internal/auth"
	"github.com/authvault/authvault/internal/auth/mocks"
	"github.com/authvault/authvault/pkg/errutil"
)

func TestNewService_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		accounts    auth.AccountRepository
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil accounts repository",
			accounts:    nil,
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "accounts repository is required",
		},
		{
			name:        "nil password hasher",
			accounts:    mocks.NewMockAccountRepository(t),
			hasher:      nil,
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewService(tt.accounts, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestNewServiceWithLogger_NilLogger(t *testing.T) {
	accounts := mocks.NewMockAccountRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	svc, err := auth.NewServiceWithLogger(accounts, hasher, nil)
	require.Error(t, err)
	assert.Nil(t, svc)
	assert.Contains(t, err.Error(), "logger")
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("registers valid account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "Valid!1").Return("hashedvalue", nil)
		accounts.On("Create", ctx, mock.AnythingOfType("*auth.Account")).Return(nil)

		account, err := svc.Register(ctx, "user@example.com", "Valid!1")
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", account.Email)
		assert.Equal(t, "hashedvalue", account.PasswordHash)
		assert.Zero(t, account.FailedAttempts)
	})

	t.Run("rejects invalid email before touching the hasher", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		account, err := svc.Register(ctx, "not-an-email", "Valid!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_EMAIL")
	})

	t.Run("rejects invalid password before touching the hasher", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		account, err := svc.Register(ctx, "user@example.com", "noupper1!")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	})

	t.Run("reports duplicate email distinctly", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "Valid!1").Return("hashedvalue", nil)
		accounts.On("Create", ctx, mock.AnythingOfType("*auth.Account")).
			Return(auth.ErrDuplicateEmail)

		account, err := svc.Register(ctx, "user@example.com", "Valid!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_EMAIL")
	})

	t.Run("wraps storage failure", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "Valid!1").Return("hashedvalue", nil)
		accounts.On("Create", ctx, mock.AnythingOfType("*auth.Account")).
			Return(errors.New("connection refused"))

		account, err := svc.Register(ctx, "user@example.com", "Valid!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	makeAccount := func(failures int, locked bool) *auth.Account {
		return &auth.Account{
			Email:          "user@example.com",
			PasswordHash:   "storedhash",
			FailedAttempts: failures,
			Locked:         locked,
		}
	}

	t.Run("successful login resets attempts", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(makeAccount(3, false), nil)
		hasher.On("Verify", "Valid!1", "storedhash").Return(true, nil)
		hasher.On("NeedsUpgrade", "storedhash").Return(false)
		accounts.On("ResetAttempts", ctx, "user@example.com").Return(makeAccount(0, false), nil)

		account, err := svc.Login(ctx, "user@example.com", "Valid!1")
		require.NoError(t, err)
		assert.Zero(t, account.FailedAttempts)
	})

	t.Run("unknown account is distinct from bad password", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "nobody@example.com").Return(nil, auth.ErrNotFound)

		account, err := svc.Login(ctx, "nobody@example.com", "Valid!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
	})

	t.Run("locked account rejected without hashing", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		// No Verify expectation: the hasher must not be consulted for a
		// locked account.
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(makeAccount(5, true), nil)

		account, err := svc.Login(ctx, "user@example.com", "Valid!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_ACCOUNT_LOCKED")
	})

	t.Run("wrong password records a failed attempt", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(makeAccount(1, false), nil)
		hasher.On("Verify", "Wrong!1", "storedhash").Return(false, nil)
		accounts.On("RecordFailedAttempt", ctx, "user@example.com").Return(makeAccount(2, false), nil)

		account, err := svc.Login(ctx, "user@example.com", "Wrong!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
		errutil.AssertErrorContext(t, err, "attempts_remaining", auth.MaxAttempts-2)
	})

	t.Run("fifth failure reports the lockout", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(makeAccount(4, false), nil)
		hasher.On("Verify", "Wrong!1", "storedhash").Return(false, nil)
		accounts.On("RecordFailedAttempt", ctx, "user@example.com").Return(makeAccount(5, true), nil)

		account, err := svc.Login(ctx, "user@example.com", "Wrong!1")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_ACCOUNT_LOCKED")
	})

	t.Run("quoted SQL metacharacters in the email are literal data", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		// The malicious string reaches the repository unchanged and matches
		// no account. No other repository method may be called.
		accounts.On("GetByEmail", ctx, "' OR '1'='1").Return(nil, auth.ErrNotFound)

		account, err := svc.Login(ctx, "' OR '1'='1", "x")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
	})

	t.Run("legacy hash upgraded on successful login", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(makeAccount(0, false), nil)
		hasher.On("Verify", "Valid!1", "storedhash").Return(true, nil)
		hasher.On("NeedsUpgrade", "storedhash").Return(true)
		hasher.On("Hash", "Valid!1").Return("newhash", nil)
		upgraded := makeAccount(0, false)
		upgraded.PasswordHash = "newhash"
		accounts.On("SetPasswordHash", ctx, "user@example.com", "newhash").Return(upgraded, nil)

		account, err := svc.Login(ctx, "user@example.com", "Valid!1")
		require.NoError(t, err)
		assert.Equal(t, "newhash", account.PasswordHash)
	})

	t.Run("login succeeds when upgrade write fails", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(makeAccount(0, false), nil)
		hasher.On("Verify", "Valid!1", "storedhash").Return(true, nil)
		hasher.On("NeedsUpgrade", "storedhash").Return(true)
		hasher.On("Hash", "Valid!1").Return("newhash", nil)
		accounts.On("SetPasswordHash", ctx, "user@example.com", "newhash").
			Return(nil, errors.New("connection reset"))
		accounts.On("ResetAttempts", ctx, "user@example.com").Return(makeAccount(0, false), nil)

		account, err := svc.Login(ctx, "user@example.com", "Valid!1")
		require.NoError(t, err)
		assert.NotNil(t, account)
	})
}

func TestService_Login_RehashesLegacyRecord(t *testing.T) {
	ctx := context.Background()

	// Real hashers, mocked storage: an account stored under the SHA-256
	// scheme logs in through the argon2id upgrade path and its record is
	// rewritten as a PHC-format hash.
	hasher := auth.NewUpgradeHasher(auth.NewArgon2idHasher(), auth.NewSHA256Hasher())
	legacyHash, err := auth.NewSHA256Hasher().Hash("Valid!1")
	require.NoError(t, err)

	accounts := mocks.NewMockAccountRepository(t)
	svc, err := auth.NewService(accounts, hasher)
	require.NoError(t, err)

	accounts.On("GetByEmail", ctx, "user@example.com").Return(&auth.Account{
		Email:        "user@example.com",
		PasswordHash: legacyHash,
	}, nil)
	accounts.On("SetPasswordHash", ctx, "user@example.com",
		mock.MatchedBy(func(hash string) bool {
			return strings.HasPrefix(hash, "$argon2id$")
		}),
	).Return(func(_ context.Context, email, hash string) (*auth.Account, error) {
		return &auth.Account{Email: email, PasswordHash: hash}, nil
	})

	account, err := svc.Login(ctx, "user@example.com", "Valid!1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(account.PasswordHash, "$argon2id$"))
}

func TestService_AttemptsRemaining(t *testing.T) {
	ctx := context.Background()

	t.Run("reports remaining attempts", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(&auth.Account{
			Email:          "user@example.com",
			FailedAttempts: 2,
		}, nil)

		remaining, err := svc.AttemptsRemaining(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, auth.MaxAttempts-2, remaining)
	})

	t.Run("locked account has zero attempts", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "user@example.com").Return(&auth.Account{
			Email:          "user@example.com",
			FailedAttempts: 5,
			Locked:         true,
		}, nil)

		remaining, err := svc.AttemptsRemaining(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Zero(t, remaining)
	})

	t.Run("unknown account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("GetByEmail", ctx, "nobody@example.com").Return(nil, auth.ErrNotFound)

		_, err = svc.AttemptsRemaining(ctx, "nobody@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
	})
}

func TestService_IsLocked(t *testing.T) {
	ctx := context.Background()
	accounts := mocks.NewMockAccountRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)
	svc, err := auth.NewService(accounts, hasher)
	require.NoError(t, err)

	accounts.On("GetByEmail", ctx, "locked@example.com").Return(&auth.Account{
		Email:  "locked@example.com",
		Locked: true,
	}, nil)

	locked, err := svc.IsLocked(ctx, "locked@example.com")
	require.NoError(t, err)
	assert.True(t, locked)
}

func TestService_ChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("validates the new password", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		account, err := svc.ChangePassword(ctx, "user@example.com", "short")
		require.Error(t, err)
		assert.Nil(t, account)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_PASSWORD")
	})

	t.Run("applies the new hash", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "NewPw!1").Return("newhash", nil)
		accounts.On("SetPasswordHash", ctx, "user@example.com", "newhash").Return(&auth.Account{
			Email:        "user@example.com",
			PasswordHash: "newhash",
		}, nil)

		account, err := svc.ChangePassword(ctx, "user@example.com", "NewPw!1")
		require.NoError(t, err)
		assert.Equal(t, "newhash", account.PasswordHash)
	})

	t.Run("unknown account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "NewPw!1").Return("newhash", nil)
		accounts.On("SetPasswordHash", ctx, "nobody@example.com", "newhash").
			Return(nil, auth.ErrNotFound)

		_, err = svc.ChangePassword(ctx, "nobody@example.com", "NewPw!1")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
	})
}

func TestService_Unlock(t *testing.T) {
	ctx := context.Background()

	t.Run("resets failure state", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("ResetAttempts", ctx, "user@example.com").Return(&auth.Account{
			Email: "user@example.com",
		}, nil)

		account, err := svc.Unlock(ctx, "user@example.com")
		require.NoError(t, err)
		assert.False(t, account.Locked)
		assert.Zero(t, account.FailedAttempts)
	})

	t.Run("unknown account", func(t *testing.T) {
		accounts := mocks.NewMockAccountRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(accounts, hasher)
		require.NoError(t, err)

		accounts.On("ResetAttempts", ctx, "nobody@example.com").Return(nil, auth.ErrNotFound)

		_, err = svc.Unlock(ctx, "nobody@example.com")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNKNOWN_ACCOUNT")
	})
}
