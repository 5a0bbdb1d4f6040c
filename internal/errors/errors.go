package errors

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by every stage of a run.
var (
	ErrHTTPRequestFailed  = errors.New("HTTP request failed")
	ErrAuthRequestFailed  = errors.New("auth request failed")
	ErrMissingCredential  = errors.New("missing credential")
	ErrStoreUnwritable    = errors.New("credential store unwritable")
	ErrCastFailed         = errors.New("cast failed")
	ErrSQLStatementFailed = errors.New("SQL statement failed")
	ErrConnectionFailed   = errors.New("warehouse connection failed")
	ErrPublishFailed      = errors.New("object publish failed")
	ErrConfiguration      = errors.New("configuration error")
	ErrEmptyDataset       = errors.New("empty dataset")
)

// WrapError wraps err with a taxonomy type and a short message.
// Both errType and err stay reachable through errors.Is.
func WrapError(err error, errType error, message string) error {
	if err == nil {
		return fmt.Errorf("%w: %s", errType, message)
	}
	return fmt.Errorf("%w: %s: %w", errType, message, err)
}

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As provides a convenience wrapper around errors.As
func As(err error, target any) bool {
	return errors.As(err, target)
}
