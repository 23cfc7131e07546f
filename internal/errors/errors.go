package errors

import (
	"errors"
	"fmt"
)

// Common error types shared by the client packages
var (
	// Configuration errors
	ErrMissingConfig = errors.New("missing configuration value")
	ErrInvalidConfig = errors.New("invalid configuration value")

	// Flow errors
	ErrStateNotFound = errors.New("state not found")
	ErrStateExpired  = errors.New("state expired")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
