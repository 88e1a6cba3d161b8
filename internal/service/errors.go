package service

import "errors"

// Sentinel error kinds shared across services. Handlers match them with
// errors.Is and map them to HTTP statuses.
var (
	// ErrNotFound means a referenced entity id does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict means a uniqueness constraint would be violated. The
	// second write is rejected, never silently duplicated.
	ErrConflict = errors.New("already exists")
	// ErrValidation means submitted fields fail declared constraints.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials deliberately does not say which of
	// username/password was wrong.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
