// ABOUTME: Client-side session state passed explicitly between requests
// ABOUTME: Replaces any process-wide "current user" with a value the caller owns

package auth

import (
	"time"

	"github.com/2389/salesboard/internal/store"
)

// ClientState is the credential a client remembers between interactions.
// The zero value means "not logged in".
type ClientState struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
}

// LoggedIn reports whether the state carries a token. It does not check the
// token against the store; use Service.RequireActiveSession for that.
func (c ClientState) LoggedIn() bool {
	return c.Token != ""
}

// stateFor builds the client state that remembers session.
func stateFor(session *store.Session) ClientState {
	return ClientState{
		Token:     session.Token,
		UserID:    session.UserID,
		ExpiresAt: session.ExpiresAt,
	}
}
