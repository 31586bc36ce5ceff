// ABOUTME: Backend selection for the Store interface
// ABOUTME: Maps a configured driver name to the SQLite or PostgreSQL implementation

package store

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the Store for driver. For sqlite, location is a file path;
// for postgres it is a connection string.
func Open(ctx context.Context, driver, location string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		s, err := NewSQLiteStore(location)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, location)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
