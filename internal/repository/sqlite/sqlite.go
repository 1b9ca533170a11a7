// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary builds
// without a C toolchain. Tests use ":memory:" for a throwaway database.
//
// The schema lives in migrations/ and is applied with golang-migrate on every
// New, which tracks what has already run in the schema_migrations table.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/codinggeeks/api/internal/apperror"
	"github.com/codinggeeks/api/internal/repository"
)

var _ repository.Store = (*DB)(nil)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultQueryTimeout bounds every store call unless overridden.
const DefaultQueryTimeout = 10 * time.Second

// DB wraps a sql.DB connection pool and implements both
// repository.UserRepository and repository.SolutionRepository.
type DB struct {
	conn    *sql.DB
	timeout time.Duration
}

type Option func(*DB)

// WithQueryTimeout overrides the per-call store timeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(db *DB) {
		if d > 0 {
			db.timeout = d
		}
	}
}

// New opens the database at dbPath and brings the schema up to date.
//
// dbPath examples:
//   - "data/codinggeeks.db" → file-based database (persistent)
//   - ":memory:"            → in-memory database (tests, lost on close)
func New(dbPath string, opts ...Option) (*DB, error) {
	conn, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{conn: conn, timeout: DefaultQueryTimeout}
	for _, opt := range opts {
		opt(db)
	}

	m, err := newMigrator(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: preparing migrations: %w", err)
	}
	// m is not closed: closing it would close conn as well.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Migrator returns a golang-migrate handle on its own connection to dbPath.
// Closing the handle closes that connection.
func Migrator(dbPath string) (*migrate.Migrate, error) {
	conn, err := open(dbPath)
	if err != nil {
		return nil, err
	}
	m, err := newMigrator(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: preparing migrations: %w", err)
	}
	return m, nil
}

func newMigrator(conn *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}
	driver, err := sqlitemigrate.WithInstance(conn, &sqlitemigrate.Config{})
	if err != nil {
		return nil, err
	}
	return migrate.NewWithInstance("iofs", src, "sqlite", driver)
}

func open(dbPath string) (*sql.DB, error) {
	memory := dbPath == ":memory:"

	dsn := dbPath
	if !memory {
		// Pragmas in the DSN apply to every pooled connection.
		dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if memory {
		// Every new connection to ":memory:" is a separate, empty database.
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
		}
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	return conn, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()
	if err := db.conn.PingContext(ctx); err != nil {
		return storeErr(ctx, "ping", err)
	}
	return nil
}

func (db *DB) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, db.timeout)
}

// storeErr converts a driver failure into the apperror taxonomy. ctx is the
// bounded context the call ran under; SQLite reports an interrupted query
// without wrapping the context error, so the deadline is checked directly.
func storeErr(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperror.Timeout(op)
	}
	return apperror.Store(op, err)
}

func isUniqueViolation(err error) bool {
	var se *sqlitedriver.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

func isForeignKeyViolation(err error) bool {
	var se *sqlitedriver.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
		(se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "FOREIGN KEY"))
}

// nullable turns an optional patch field into a bind value; nil binds NULL so
// COALESCE keeps the stored column.
func nullable[T ~string](p *T) any {
	if p == nil {
		return nil
	}
	return string(*p)
}
