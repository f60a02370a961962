package impl

import (
	"context"

	"portal/internal/domain/repository"

	"github.com/pkg/errors"
)

// isUnavailable reports whether err means a backing store could not be
// reached in time. Such failures are answered with the retryable service
// error rather than an internal one.
func isUnavailable(err error) bool {
	return errors.Is(err, repository.ErrDatabaseUnavailable) ||
		errors.Is(err, repository.ErrSessionStoreUnavailable) ||
		errors.Is(err, context.DeadlineExceeded)
}
