package repository

import (
	"context"
	"errors"
)

// ErrDatabaseUnavailable is returned when the database cannot be reached or a
// query misses its deadline. Distinct from execution errors so callers can
// answer with a retryable failure instead of an internal one.
var ErrDatabaseUnavailable = errors.New("database unavailable")

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory provides repository instances bound to a specific transaction.
// This ensures all repository operations within a transaction use the same database connection.
type RepositoryFactory interface {
	// UserRepo returns a UserRepository instance bound to the current transaction.
	UserRepo() UserRepository

	// OAuthAccountRepo returns an OAuthAccountRepository instance bound to the current transaction.
	OAuthAccountRepo() OAuthAccountRepository
}
