package auth

import "errors"

var (
	ErrNotFound = errors.New("auth: not found")
	// ErrInvalidCredentials is returned for any login failure so callers
	// cannot distinguish unknown emails from wrong passwords.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrUnauthenticated indicates the presented token matches no user.
	ErrUnauthenticated = errors.New("auth: unauthenticated")
)
