// Package auth provides account sign-up, password login, and server-side
// sessions for salesboard.
//
// # Passwords
//
// Passwords are hashed with PBKDF2-HMAC-SHA256 (200,000 iterations by default)
// using a fresh 16-byte random salt per account. Hash and salt are stored as
// hex. Verification recomputes the hash and compares with
// crypto/subtle.ConstantTimeCompare.
//
// # Sessions
//
// A session token is 32 bytes from crypto/rand encoded as unpadded URL-safe
// base64. The token is both the session's primary key and the bearer
// credential, so it never appears in logs beyond an 8-character prefix.
// Sessions expire seven days after creation. An expired session is deleted
// the first time it is presented, and a background sweep removes the rest.
//
// # Client State
//
// The credential a client remembers is an explicit ClientState value. Service
// methods take it and return the updated value; there is no global "current
// user". The web layer stores it in a cookie.
//
// # Errors
//
//   - ErrDuplicateEmail: sign-up for an email that already exists
//   - ErrInvalidCredentials: unknown email or wrong password (indistinguishable)
//   - ErrUnauthenticated: no valid session; the caller should prompt for login
//   - ErrStoreUnavailable: any backing store failure, never retried here
//   - ErrMissingField: sign-up with an empty email, username, or password
//
// # Session Restore
//
// RestoreMostRecentSession adopts the newest unexpired session when the
// client presents none. Because that session may belong to anyone, it is
// off unless Options.RestoreLatestSession is set.
package auth
