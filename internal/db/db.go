// Package db wraps the SQL connection, schema migrations and transactions.
package db

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

var ErrNotInitialized = errors.New("database not initialized")

// Row is the result of QueryRow. *sql.Row satisfies it.
type Row interface {
	Scan(dest ...any) error
}

// errRow reports err from Scan.
type errRow struct{ err error }

func (r errRow) Scan(dest ...any) error { return r.err }

type DB interface {
	// InitDB opens the connection and applies pending migrations.
	InitDB() error

	Get() *sql.DB
	Close() error
	Driver() string

	// Query, QueryRow and Exec accept '?' placeholders and run inside the
	// transaction carried by ctx, if any.
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var dbLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	dbLogger = l
}

// New returns the implementation registered for driver.
func New(driver, dsn string, maxOpenConns int) (DB, error) {
	switch driver {
	case DriverSQLite:
		return NewSQLite(dsn), nil
	case DriverPostgres:
		return NewPostgres(dsn, maxOpenConns), nil
	default:
		return nil, errors.New("unsupported database driver: " + driver)
	}
}

// conn holds what both drivers share.
type conn struct {
	db     *sql.DB
	driver string
}

func (c *conn) Get() *sql.DB {
	return c.db
}

func (c *conn) Driver() string {
	return c.driver
}

func (c *conn) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *conn) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if c.db == nil {
		return nil, ErrNotInitialized
	}
	query = Rebind(c.driver, query)
	dbLogger.Debug().Str("query", query).Msg("Query")
	return GetExecutor(ctx, c.db).QueryContext(ctx, query, args...)
}

func (c *conn) QueryRow(ctx context.Context, query string, args ...any) Row {
	if c.db == nil {
		return errRow{err: ErrNotInitialized}
	}
	query = Rebind(c.driver, query)
	dbLogger.Debug().Str("query", query).Msg("QueryRow")
	return GetExecutor(ctx, c.db).QueryRowContext(ctx, query, args...)
}

func (c *conn) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.db == nil {
		return nil, ErrNotInitialized
	}
	query = Rebind(c.driver, query)
	dbLogger.Debug().Str("query", query).Msg("Exec")
	return GetExecutor(ctx, c.db).ExecContext(ctx, query, args...)
}

// Rebind rewrites '?' placeholders into the driver's bind syntax.
// Queries must not contain literal question marks.
func Rebind(driver, query string) string {
	if driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
