// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Common sentinels across repo/service/transport layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict indicates a compare-and-swap lost against a concurrent writer.
	ErrVersionConflict = errors.New("version conflict")

	// ErrAlreadyExists indicates a unique constraint violation (email already registered).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidCredentials indicates a password mismatch for an existing account.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated indicates a missing, invalid or expired access token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidRefreshToken indicates a missing, invalid, expired or superseded refresh token.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrValidation indicates malformed client input.
	ErrValidation = errors.New("validation")
)
