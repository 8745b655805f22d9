// Package backend holds the error taxonomy shared by every component.
//
// Components return these sentinels (possibly wrapped with detail via
// fmt.Errorf("%w: ...")) and the API layer maps them to status codes with
// errors.Is. Anything that is not one of these is a remote failure: opaque
// to the caller, logged with its cause, never retried.
package backend

import "errors"

var (
	// ErrDisabled means the backend configuration is incomplete and the
	// operation was short-circuited without touching the network.
	ErrDisabled = errors.New("backend disabled")

	// ErrInvalidInput is a precondition violation caught before any
	// remote call (empty identifier, blank message, unknown service).
	ErrInvalidInput = errors.New("invalid input")

	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)
