// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying key-derivation algorithm, keeping the domain pure.
type PasswordHasher interface {
	// Hash generates a salted hash from a plaintext password.
	Hash(password string) (string, error)

	// Check compares a plaintext password with a stored hash in constant time.
	// Never logs or returns either secret.
	Check(password, hash string) bool

	// NeedsRehash reports whether a stored hash was produced with weaker
	// parameters than currently configured and should be regenerated.
	NeedsRehash(hash string) bool

	// ValidatePasswordStrength rejects passwords that do not meet the
	// configured complexity requirements.
	ValidatePasswordStrength(password string) error
}
