// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

// Package auth provides the authentication and account-state engine.
//
// # Domain Types
//
// Domain types (Account, RecoveryToken) should be created using their
// constructors:
//   - NewAccount - creates an Account with a validated email and password hash
//   - NewRecoveryToken - creates a RecoveryToken bound to an account email
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service types coordinate domain operations:
//   - Service - registration, login with lockout, password change, unlock
//   - RecoveryService - recovery token issuance and redemption
//
// Services are created with New*Service constructors that validate dependencies.
//
// # Lockout
//
// An account moves to the locked state once MaxAttempts consecutive login
// failures are recorded. While locked, the candidate password is never hashed
// or compared; only a successful recovery redemption (or an explicit unlock)
// returns the account to the active state.
package auth
