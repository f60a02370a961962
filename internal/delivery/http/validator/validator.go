// Package validator adapts go-playground/validator to Echo's Validator interface.
package validator

import (
	domainerrors "portal/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

// EchoValidator wraps a validator instance for use as echo.Validator.
type EchoValidator struct {
	validate *validator.Validate
}

// New creates the validator used by the HTTP server.
func New() *EchoValidator {
	return &EchoValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks struct tags and converts failures to the validation error.
func (v *EchoValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
