// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/oops"
)

// Password validation constraints.
const (
	MinPasswordLength = 5
	MaxPasswordLength = 10
)

// SpecialCharacters is the set of characters of which a valid password
// must contain at least one.
const SpecialCharacters = "!@#$%^&*()_+-=[]{};:'\",.<>?/\\|`~"

// emailRegex matches addresses with a non-empty local part, a single @,
// and a domain containing at least one dot. No DNS or deliverability
// checks are performed.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates the format of a candidate email address.
// Case is preserved as given; the same string registered with different
// casing is a different account key.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot be empty")
	}
	if strings.ContainsFunc(email, unicode.IsSpace) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email cannot contain whitespace")
	}
	if strings.Count(email, "@") != 1 {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("email must contain exactly one @")
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_EMAIL").Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates a candidate password against policy.
// Password requirements:
//   - Length: MinPasswordLength to MaxPasswordLength characters (runes)
//   - At least one uppercase letter
//   - At least one character from SpecialCharacters
//
// Unicode and whitespace characters count as ordinary characters; there is
// no separate rejection rule for them.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_PASSWORD").Errorf("password cannot be empty")
	}

	length := len([]rune(password))
	if length < MinPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if length > MaxPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("max", MaxPasswordLength).
			Errorf("password must be at most %d characters", MaxPasswordLength)
	}

	if !strings.ContainsFunc(password, unicode.IsUpper) {
		return oops.Code("AUTH_INVALID_PASSWORD").
			Errorf("password must contain at least one uppercase letter")
	}
	if !strings.ContainsAny(password, SpecialCharacters) {
		return oops.Code("AUTH_INVALID_PASSWORD").
			Errorf("password must contain at least one special character")
	}
	return nil
}
