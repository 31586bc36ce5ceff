// Package store provides persistent storage for salesboard accounts and sessions.
//
// # Architecture
//
// The package splits persistence into two narrow interfaces:
//
//   - CredentialStore: user lookup by email and user insertion
//   - SessionStore: session insert/find/delete, most-recent lookup, expiry sweep
//
// Store combines both with Ping and Close. Three implementations exist:
//
//   - SQLiteStore: embedded database via modernc.org/sqlite (no cgo)
//   - PostgresStore: remote database via pgx's database/sql driver
//   - MockStore: in-memory maps for tests
//
// Open picks a backend from the database configuration.
//
// # Data Models
//
//   - User: email (unique, lowercased), display username, hex PBKDF2 hash, hex salt
//   - Session: opaque token, owning user, created/expiry timestamps
//
// Sessions are returned by FindSession whether expired or not. Deciding that an
// expired session is invalid (and deleting it) belongs to the auth package.
//
// # Error Handling
//
// Sentinel errors:
//
//   - ErrNotFound: no matching user or session
//   - ErrEmailExists: the UNIQUE constraint on users.email rejected an insert
//
// All other failures are wrapped with context using fmt.Errorf and %w.
//
// # Timestamps
//
// SQLite stores timestamps as fixed-width UTC text so that range filters and
// ORDER BY work on the raw column. PostgreSQL uses TIMESTAMPTZ.
//
// # Migrations
//
// SQLiteStore creates its schema with CREATE TABLE IF NOT EXISTS on open.
// PostgresStore applies the goose migrations embedded in the migrations
// subpackage, either on OpenPostgres or through `salesboard migrate`.
//
// # Testing
//
// MockStore supports error injection through FailWith. SQLite tests use a
// temporary file per test; PostgreSQL tests use go-sqlmock.
package store
