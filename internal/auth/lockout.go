// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

// Lockout configuration.
const (
	// MaxAttempts is the number of consecutive login failures that locks
	// an account.
	MaxAttempts = 5
)

// IsLockedOut returns true once the failure count has reached MaxAttempts.
func IsLockedOut(failures int) bool {
	return failures >= MaxAttempts
}

// AttemptsRemaining returns how many login attempts remain before lockout,
// clamped to zero.
func AttemptsRemaining(failures int) int {
	remaining := MaxAttempts - failures
	if remaining < 0 {
		return 0
	}
	return remaining
}
