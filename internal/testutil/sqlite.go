// internal/testutil/sqlite.go
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"money-tracker/pkg/db"
)

// SQLiteConfig returns a database config pointing at a fresh file in the test's temp dir.
func SQLiteConfig(t testing.TB) db.Config {
	t.Helper()
	return db.Config{
		Driver:       db.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "ledger.db"),
		MaxOpenConns: 4,
	}
}

// NewSQLiteDB opens a migrated SQLite pool that is closed when the test ends.
func NewSQLiteDB(t testing.TB) *sqlx.DB {
	t.Helper()
	cfg := SQLiteConfig(t)
	require.NoError(t, db.RunMigrations(cfg))

	conn, err := db.NewDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
