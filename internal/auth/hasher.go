// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthVault Contributors

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a storable hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade returns true if the hash should be re-hashed under this
	// hasher's scheme.
	NeedsUpgrade(hash string) bool
}

// SHA256Hasher implements PasswordHasher as an unsalted SHA-256 hex digest
// of the UTF-8 password bytes. This is the system's historical scheme and a
// known weakness: the digest is deterministic, so two accounts with the same
// password store identical hashes, and no work factor slows brute forcing.
// It is kept as the default for compatibility with existing records; see
// Argon2idHasher for the hardened alternative.
type SHA256Hasher struct{}

// NewSHA256Hasher creates a new SHA256Hasher.
func NewSHA256Hasher() *SHA256Hasher {
	return &SHA256Hasher{}
}

// Hash produces the hex-encoded SHA-256 digest of the password.
func (h *SHA256Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares it in constant time.
func (h *SHA256Hasher) Verify(password, hash string) (bool, error) {
	if hash == "" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("stored hash cannot be empty")
	}
	sum := sha256.Sum256([]byte(password))
	computed := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1, nil
}

// NeedsUpgrade always returns false: SHA-256 digests are the scheme's own
// storage format, and upgrading is an explicit operator decision.
func (h *SHA256Hasher) NeedsUpgrade(string) bool {
	return false
}

// Argon2id parameters (OWASP-recommended).
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Argon2idHasher implements PasswordHasher using salted argon2id in PHC
// string format. Opt-in hardened scheme. It only verifies PHC-format
// hashes; deployments with existing SHA-256 records enable it through
// UpgradeHasher so legacy hashes keep verifying until they are rehashed.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash format")
	}
	if parts[1] != "argon2id" {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}

	if threads > 255 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("threads value %d exceeds uint8 max", threads)
	}
	keyLen := len(expectedHash)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false, oops.Code("AUTH_INVALID_HASH").Errorf("invalid hash key length: %d", keyLen)
	}

	computedHash := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1, nil
}

// NeedsUpgrade returns true if the hash is not argon2id (e.g., a legacy
// SHA-256 digest).
func (h *Argon2idHasher) NeedsUpgrade(hash string) bool {
	return !strings.HasPrefix(hash, "$argon2id$")
}

// UpgradeHasher verifies against a modern scheme while still accepting
// hashes stored under a legacy one. New hashes always use the modern
// scheme; a stored hash the modern scheme reports as needing upgrade is
// verified through the legacy scheme instead, so the next successful
// login rehashes it under the modern scheme.
type UpgradeHasher struct {
	modern PasswordHasher
	legacy PasswordHasher
}

// NewUpgradeHasher creates an UpgradeHasher over the given schemes.
func NewUpgradeHasher(modern, legacy PasswordHasher) *UpgradeHasher {
	return &UpgradeHasher{modern: modern, legacy: legacy}
}

// Hash produces a hash under the modern scheme.
func (h *UpgradeHasher) Hash(password string) (string, error) {
	return h.modern.Hash(password)
}

// Verify routes legacy-format hashes to the legacy scheme and everything
// else to the modern one.
func (h *UpgradeHasher) Verify(password, hash string) (bool, error) {
	if h.modern.NeedsUpgrade(hash) {
		return h.legacy.Verify(password, hash)
	}
	return h.modern.Verify(password, hash)
}

// NeedsUpgrade reports whether the hash predates the modern scheme.
func (h *UpgradeHasher) NeedsUpgrade(hash string) bool {
	return h.modern.NeedsUpgrade(hash)
}
