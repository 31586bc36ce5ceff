// ABOUTME: Mock Store implementation for testing
// ABOUTME: Keeps users and sessions in memory so auth tests run without a database

package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	users    map[int64]*User  // keyed by user ID
	byEmail  map[string]int64 // keyed by lowercased email
	sessions map[string]*mockSession
	nextID   int64
	seq      int64
	err      error
}

type mockSession struct {
	Session
	seq int64 // insertion order, breaks created_at ties
}

var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:    make(map[int64]*User),
		byEmail:  make(map[string]int64),
		sessions: make(map[string]*mockSession),
	}
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *MockStore) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SessionCount returns the number of stored sessions, expired or not.
func (m *MockStore) SessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// InsertUser stores a new user and assigns its ID.
func (m *MockStore) InsertUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	key := strings.ToLower(user.Email)
	if _, exists := m.byEmail[key]; exists {
		return ErrEmailExists
	}

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.nextID++
	user.ID = m.nextID

	// Make a copy to avoid external modification
	u := *user
	m.users[u.ID] = &u
	m.byEmail[key] = u.ID
	return nil
}

// FindUserByEmail retrieves a user by email, ignoring case.
func (m *MockStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	u := *m.users[id]
	return &u, nil
}

// InsertSession stores a new session.
func (m *MockStore) InsertSession(ctx context.Context, session *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	m.seq++
	m.sessions[session.Token] = &mockSession{Session: *session, seq: m.seq}
	return nil
}

// FindSession retrieves a session by token without checking expiry.
func (m *MockStore) FindSession(ctx context.Context, token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrNotFound
	}
	session := s.Session
	return &session, nil
}

// DeleteSession removes a session if present.
func (m *MockStore) DeleteSession(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}

	delete(m.sessions, token)
	return nil
}

// MostRecentUnexpiredSession returns the newest session still valid at now.
func (m *MockStore) MostRecentUnexpiredSession(ctx context.Context, now time.Time) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.err != nil {
		return nil, m.err
	}

	var best *mockSession
	for _, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			continue
		}
		if best == nil ||
			s.CreatedAt.After(best.CreatedAt) ||
			(s.CreatedAt.Equal(best.CreatedAt) && s.seq > best.seq) {
			best = s
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	session := best.Session
	return &session, nil
}

// DeleteExpiredSessions removes sessions that expired at or before now.
func (m *MockStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return 0, m.err
	}

	var n int64
	for token, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// Ping reports the injected failure, if any.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}
