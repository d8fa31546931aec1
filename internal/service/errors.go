package service

import "errors"

// Error kinds surfaced by the auth service. Handlers map these to HTTP
// status codes; the service itself never retries.
var (
	// ErrUsernameTaken reports a registration with an already used username.
	ErrUsernameTaken = errors.New("username already registered")
	// ErrEmailTaken reports a registration with an already used email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound reports a lookup of a user that does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrUnauthorized reports a bad password or a missing/expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBadRequest reports an invalid or empty request payload.
	ErrBadRequest = errors.New("bad request")
)
