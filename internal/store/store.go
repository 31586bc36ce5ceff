// ABOUTME: Store interfaces and data types for salesboard persistence
// ABOUTME: Defines User and Session records plus the credential and session store contracts

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when inserting a user whose email is already registered
var ErrEmailExists = errors.New("email already registered")

// User is a registered account. Email is stored lowercased and is unique.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string // hex PBKDF2 output
	Salt         string // hex random salt
	CreatedAt    time.Time
}

// Session is a server-side login session. The token is both its identity
// and the bearer credential presented by the client.
type Session struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// CredentialStore persists user accounts.
type CredentialStore interface {
	// FindUserByEmail returns the user whose email matches case-insensitively.
	// Returns ErrNotFound if there is none.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// InsertUser stores a new user and sets user.ID.
	// Returns ErrEmailExists if the email is already taken.
	InsertUser(ctx context.Context, user *User) error
}

// SessionStore persists login sessions.
type SessionStore interface {
	InsertSession(ctx context.Context, session *Session) error

	// FindSession returns the session for token, expired or not.
	// Returns ErrNotFound if there is none.
	FindSession(ctx context.Context, token string) (*Session, error)

	// DeleteSession removes the session. Deleting an unknown token is not an error.
	DeleteSession(ctx context.Context, token string) error

	// MostRecentUnexpiredSession returns the newest session with expires_at after now.
	// Returns ErrNotFound if there is none.
	MostRecentUnexpiredSession(ctx context.Context, now time.Time) (*Session, error)

	// DeleteExpiredSessions removes every session with expires_at at or before now
	// and returns how many were removed.
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	CredentialStore
	SessionStore

	// Ping checks that the backing database is reachable.
	Ping(ctx context.Context) error

	Close() error
}
