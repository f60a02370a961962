// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"strconv"
	"strings"
	"unicode"

	"portal/config"
	domainerrors "portal/internal/domain/errors"
	"portal/internal/domain/service"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	hashPrefix        = "pbkdf2-sha512"
	saltLength        = 16
	keyLength         = 64
	minIterationFloor = 100_000
)

// pbkdf2Hasher is a concrete implementation of the PasswordHasher interface
// using PBKDF2-SHA512 with a per-password random salt.
type pbkdf2Hasher struct {
	iterations int
	strength   *config.PasswordStrengthConfig
}

// NewPBKDF2Hasher is the constructor for pbkdf2Hasher.
// It returns the implementation as a service.PasswordHasher interface.
func NewPBKDF2Hasher(cfg *config.Config) service.PasswordHasher {
	iterations := minIterationFloor
	if cfg.Auth != nil && cfg.Auth.PBKDF2Iterations > iterations {
		iterations = cfg.Auth.PBKDF2Iterations
	}

	return &pbkdf2Hasher{
		iterations: iterations,
		strength:   cfg.PasswordStrength,
	}
}

// Hash generates a salted PBKDF2 hash from a plaintext password.
// Encoded form: pbkdf2-sha512$<iterations>$<salt-b64>$<key-b64>
func (h *pbkdf2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "failed to generate password salt")
	}

	key := pbkdf2.Key([]byte(password), salt, h.iterations, keyLength, sha512.New)

	encoded := strings.Join([]string{
		hashPrefix,
		strconv.Itoa(h.iterations),
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$")

	return encoded, nil
}

// Check compares a plaintext password with a stored hash.
// The derived keys are compared in constant time so timing cannot leak
// partial correctness. The iteration count is taken from the stored hash,
// which lets old hashes keep verifying after the configured count changes.
func (h *pbkdf2Hasher) Check(password, hash string) bool {
	iterations, salt, key, err := decodeHash(hash)
	if err != nil {
		return false
	}

	candidate := pbkdf2.Key([]byte(password), salt, iterations, len(key), sha512.New)

	return subtle.ConstantTimeCompare(candidate, key) == 1
}

// NeedsRehash reports whether a stored hash uses fewer iterations than the
// configured count. Undecodable hashes read as due for rehash; they will fail
// Check anyway.
func (h *pbkdf2Hasher) NeedsRehash(hash string) bool {
	iterations, _, _, err := decodeHash(hash)
	if err != nil {
		return true
	}

	return iterations < h.iterations
}

// ValidatePasswordStrength rejects passwords that do not meet the configured
// complexity requirements. With no configuration only a minimal length check applies.
func (h *pbkdf2Hasher) ValidatePasswordStrength(password string) error {
	minLength := 8
	maxLength := 128
	requireUpper, requireLower, requireNumbers, requireSpecial := false, false, false, false

	if h.strength != nil {
		if h.strength.MinLength > 0 {
			minLength = h.strength.MinLength
		}
		if h.strength.MaxLength > 0 {
			maxLength = h.strength.MaxLength
		}
		requireUpper = h.strength.RequireUppercase
		requireLower = h.strength.RequireLowercase
		requireNumbers = h.strength.RequireNumbers
		requireSpecial = h.strength.RequireSpecial
	}

	if len(password) < minLength || len(password) > maxLength {
		return domainerrors.ErrPasswordStrength.WrapMessage("password length out of bounds")
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	switch {
	case requireUpper && !hasUpper,
		requireLower && !hasLower,
		requireNumbers && !hasNumber,
		requireSpecial && !hasSpecial:
		return domainerrors.ErrPasswordStrength.WrapMessage("password is missing a required character class")
	}

	return nil
}

func decodeHash(hash string) (iterations int, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 4 || parts[0] != hashPrefix {
		return 0, nil, nil, errors.New("unrecognized password hash format")
	}

	iterations, err = strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return 0, nil, nil, errors.New("invalid iteration count in password hash")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "invalid salt encoding in password hash")
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return 0, nil, nil, errors.Wrap(err, "invalid key encoding in password hash")
	}

	return iterations, salt, key, nil
}
