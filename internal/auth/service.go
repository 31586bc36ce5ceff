// ABOUTME: Account and session service: sign-up, login, session issue/validate/teardown
// ABOUTME: Sits between the web layer and the credential/session stores

package auth

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/salesboard/internal/store"
)

// DefaultSessionTTL is how long a session stays valid after login.
const DefaultSessionTTL = 7 * 24 * time.Hour

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// Iterations is the PBKDF2 work factor used for new and existing hashes.
	Iterations int

	// SessionTTL is the lifetime of a newly created session.
	SessionTTL time.Duration

	// RestoreLatestSession enables RestoreMostRecentSession. When false the
	// method never adopts a session the client did not present.
	RestoreLatestSession bool

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// NewToken generates session tokens. Defaults to NewSessionToken.
	NewToken func() (string, error)

	Logger *slog.Logger
}

// Service implements account and session operations.
type Service struct {
	users    store.CredentialStore
	sessions store.SessionStore

	iterations int
	ttl        time.Duration
	restore    bool
	now        func() time.Time
	newToken   func() (string, error)
	dummySalt  []byte
	logger     *slog.Logger
}

// NewService creates a Service backed by the given stores.
func NewService(users store.CredentialStore, sessions store.SessionStore, opts Options) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		iterations: opts.Iterations,
		ttl:        opts.SessionTTL,
		restore:    opts.RestoreLatestSession,
		now:        opts.Now,
		newToken:   opts.NewToken,
		dummySalt:  make([]byte, SaltBytes),
		logger:     opts.Logger,
	}
	if s.iterations <= 0 {
		s.iterations = DefaultIterations
	}
	if s.ttl <= 0 {
		s.ttl = DefaultSessionTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newToken == nil {
		s.newToken = NewSessionToken
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "auth")
	}
	return s
}

// NormalizeEmail trims surrounding whitespace and lowercases email.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp registers a new account. The email is normalized before lookup and
// storage. Returns ErrDuplicateEmail if it is already registered, including
// when a concurrent sign-up wins the race to insert.
func (s *Service) SignUp(ctx context.Context, email, username, password string) (*store.User, error) {
	email = NormalizeEmail(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, ErrMissingField
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, store.ErrNotFound):
		return nil, storeErr("looking up user", err)
	}

	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}

	user := &store.User{
		Email:        email,
		Username:     username,
		PasswordHash: HashPassword(password, salt, s.iterations),
		Salt:         hex.EncodeToString(salt),
		CreatedAt:    s.now(),
	}
	if err := s.users.InsertUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, storeErr("inserting user", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Authenticate checks email and password. Unknown emails and wrong passwords
// both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*store.User, error) {
	email = NormalizeEmail(email)

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Burn the same amount of work as a real check.
		VerifyPassword(password, s.dummySalt, "", s.iterations)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeErr("looking up user", err)
	}

	salt, err := hex.DecodeString(user.Salt)
	if err != nil {
		s.logger.Error("stored salt is not valid hex", "user_id", user.ID, "error", err)
		return nil, ErrInvalidCredentials
	}

	if !VerifyPassword(password, salt, user.PasswordHash, s.iterations) {
		s.logger.Debug("password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// CreateSession issues a new session for userID and returns the client state
// that remembers it.
func (s *Service) CreateSession(ctx context.Context, userID int64) (ClientState, error) {
	token, err := s.newToken()
	if err != nil {
		return ClientState{}, err
	}

	now := s.now()
	session := &store.Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.InsertSession(ctx, session); err != nil {
		return ClientState{}, storeErr("inserting session", err)
	}

	s.logger.Info("session created", "user_id", userID, "token", tokenPrefix(token))
	return stateFor(session), nil
}

// ValidateSession returns the session for token, or nil if there is none or it
// has expired. Expired sessions are deleted as a side effect.
func (s *Service) ValidateSession(ctx context.Context, token string) (*store.Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.FindSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("finding session", err)
	}

	if session.Expired(s.now()) {
		if err := s.sessions.DeleteSession(ctx, token); err != nil {
			return nil, storeErr("deleting expired session", err)
		}
		s.logger.Debug("expired session removed", "user_id", session.UserID, "token", tokenPrefix(token))
		return nil, nil
	}
	return session, nil
}

// EndSession deletes the session remembered by state and returns the cleared
// state. Ending a session that no longer exists is not an error. On failure
// the original state is returned unchanged.
func (s *Service) EndSession(ctx context.Context, state ClientState) (ClientState, error) {
	if !state.LoggedIn() {
		return ClientState{}, nil
	}
	if err := s.sessions.DeleteSession(ctx, state.Token); err != nil {
		return state, storeErr("deleting session", err)
	}

	s.logger.Info("session ended", "user_id", state.UserID, "token", tokenPrefix(state.Token))
	return ClientState{}, nil
}

// RequireActiveSession returns the live session for state or ErrUnauthenticated.
func (s *Service) RequireActiveSession(ctx context.Context, state ClientState) (*store.Session, error) {
	session, err := s.ValidateSession(ctx, state.Token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrUnauthenticated
	}
	return session, nil
}

// RestoreMostRecentSession adopts the newest unexpired session in the store
// when state carries no token. It reports whether a session was adopted.
//
// The adopted session may belong to any user, so this is only enabled through
// Options.RestoreLatestSession for single-user deployments.
func (s *Service) RestoreMostRecentSession(ctx context.Context, state ClientState) (ClientState, bool, error) {
	if !s.restore || state.LoggedIn() {
		return state, false, nil
	}

	session, err := s.sessions.MostRecentUnexpiredSession(ctx, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return state, false, nil
	}
	if err != nil {
		return state, false, storeErr("finding latest session", err)
	}

	s.logger.Warn("restored most recent session", "user_id", session.UserID, "token", tokenPrefix(session.Token))
	return stateFor(session), true, nil
}

// SweepExpired deletes every session that has expired by now.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessions.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, storeErr("sweeping expired sessions", err)
	}
	return n, nil
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}
