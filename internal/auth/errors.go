// ABOUTME: Error taxonomy for account and session operations
// ABOUTME: Callers match these with errors.Is to choose what to show the user

package auth

import "errors"

// Auth errors
var (
	// ErrDuplicateEmail is returned by SignUp when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned by Authenticate for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthenticated is returned by RequireActiveSession when there is no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrStoreUnavailable wraps any failure of the backing store.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMissingField is returned by SignUp when a required field is empty.
	ErrMissingField = errors.New("missing required field")
)
