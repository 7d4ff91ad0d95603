// pkg/db/db.go
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration.
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	// SQLitePath is the database file used when Driver is "sqlite".
	SQLitePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the driver specific data source name.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return "file:" + c.SQLitePath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// NewDB opens the connection pool for the configured driver and verifies it with a ping.
// The returned handle is shared by every repository; each call borrows a connection
// for the duration of one statement or transaction.
func NewDB(cfg Config) (*sqlx.DB, error) {
	if err := prepare(&cfg); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 10))
	db.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// prepare resolves the default driver, rejects unknown ones and makes sure the
// SQLite file's directory exists. It must run before any sql.Open.
func prepare(cfg *Config) error {
	switch cfg.Driver {
	case DriverPostgres, "":
		cfg.Driver = DriverPostgres
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return fmt.Errorf("sqlite database path is empty")
		}
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("failed to create sqlite directory: %w", err)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	return nil
}

// Redacted returns a loggable description of the target database.
func (c Config) Redacted() string {
	if c.Driver == DriverSQLite {
		return "sqlite:" + c.SQLitePath
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s", c.User, c.Host, c.Port, strings.TrimPrefix(c.DBName, "/"))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
