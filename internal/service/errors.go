package service

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks requests rejected before any upstream call.
	ErrValidation = errors.New("validation failed")
	// ErrNotImplemented marks player API actions the gateway does not support.
	ErrNotImplemented = errors.New("action not implemented")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
