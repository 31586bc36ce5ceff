// ABOUTME: PostgreSQL implementation of the Store interface using pgx's database/sql driver
// ABOUTME: Remote users/sessions persistence with goose-managed schema migrations

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/2389/salesboard/internal/store/migrations"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore implements Store on a PostgreSQL database
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open database handle. The schema must already
// exist; call Migrate to apply it.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: slog.Default().With("component", "store", "driver", "postgres"),
	}
}

// OpenPostgres connects to dsn, verifies the connection and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := NewPostgresStore(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("PostgreSQL store initialized")
	return s, nil
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("setting migration dialect: %w", err)
	}
	if err := gooseUpContext(ctx, s.db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	s.logger.Info("closing PostgreSQL store")
	return s.db.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// InsertUser creates a new user and sets user.ID.
// Returns ErrEmailExists if the email is already registered.
func (s *PostgresStore) InsertUser(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash, salt, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Salt,
		user.CreatedAt.UTC(),
	).Scan(&user.ID)
	if err != nil {
		if isPgUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("inserting user: %w", err)
	}

	s.logger.Info("created user", "id", user.ID, "username", user.Username)
	return nil
}

// FindUserByEmail looks up a user by email, ignoring case.
func (s *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, username, password_hash, salt, created_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Salt,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &user, nil
}

// InsertSession stores a new session.
func (s *PostgresStore) InsertSession(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`,
		session.Token,
		session.UserID,
		session.CreatedAt.UTC(),
		session.ExpiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// FindSession returns the session for token without checking expiry.
func (s *PostgresStore) FindSession(ctx context.Context, token string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE token = $1
	`, token)
	return scanPgSession(row)
}

// DeleteSession removes a session. Unknown tokens are ignored.
func (s *PostgresStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = $1", token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// MostRecentUnexpiredSession returns the newest session still valid at now.
func (s *PostgresStore) MostRecentUnexpiredSession(ctx context.Context, now time.Time) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, expires_at
		FROM sessions
		WHERE expires_at > $1
		ORDER BY created_at DESC
		LIMIT 1
	`, now.UTC())
	return scanPgSession(row)
}

// DeleteExpiredSessions removes all sessions that expired at or before now.
func (s *PostgresStore) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= $1", now.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}

	n, _ := res.RowsAffected()
	if n > 0 {
		s.logger.Debug("deleted expired sessions", "count", n)
	}
	return n, nil
}

func scanPgSession(row *sql.Row) (*Session, error) {
	var session Session
	err := row.Scan(&session.Token, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &session, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
