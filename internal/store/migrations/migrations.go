// ABOUTME: Embedded goose migrations for the PostgreSQL store
// ABOUTME: SQL files in this directory are applied in version order by store.Migrate

package migrations

import "embed"

// FS holds the PostgreSQL schema migrations.
//
//go:embed *.sql
var FS embed.FS
