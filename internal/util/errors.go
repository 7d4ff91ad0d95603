// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidInput          = errors.New("invalid input provided")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrStartingBalanceLocked = errors.New("starting balance is already set")
)

// IsError reports whether err matches target anywhere in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
