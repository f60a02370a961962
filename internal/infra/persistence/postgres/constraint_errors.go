package postgres

import (
	"context"
	"net"
	"strings"

	"portal/internal/domain/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// wrapQueryError classifies a failed query. Connectivity problems and missed
// deadlines map onto repository.ErrDatabaseUnavailable; everything else is
// wrapped unchanged.
func wrapQueryError(err error, msg string) error {
	if isConnectivityError(err) {
		return errors.Wrapf(repository.ErrDatabaseUnavailable, "%s: %v", msg, err)
	}

	return errors.Wrap(err, msg)
}

// isConnectivityError reports whether err means the database could not be
// reached in time, as opposed to rejecting the statement.
func isConnectivityError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "broken pipe") ||
		strings.Contains(errMsg, "bad connection")
}

// Helper functions for PostgreSQL error checking
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "duplicate key") ||
		strings.Contains(errMsg, "unique constraint")
}

func isForeignKeyConstraintViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}

func isNotNullConstraintViolation(err error) bool {
	errMsg := strings.ToLower(err.Error())

	return strings.Contains(errMsg, "null value") ||
		strings.Contains(errMsg, "not null") ||
		strings.Contains(errMsg, "23502") // PostgreSQL not_null_violation error code
}
