package errors

import (
	"errors"
	"fmt"
)

// Common error types for the quickstart token server
var (
	// Configuration errors are fatal at startup
	ErrConfig = errors.New("configuration error")

	// Authorization errors (denied, expired or invalid grants)
	ErrAuthorization = errors.New("authorization error")
	ErrNoToken       = errors.New("no token available")

	// Transport errors talking to the OAuth provider
	ErrTransport = errors.New("transport error")

	// Callback / session errors
	ErrMissingCode      = errors.New("no authorization code received")
	ErrInvalidState     = errors.New("invalid state parameter")
	ErrVerifierNotFound = errors.New("no code verifier found")
	ErrSessionNotFound  = errors.New("session not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
