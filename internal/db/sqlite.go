package db

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	conn
	dsn string
}

var _ DB = (*SQLite)(nil)

func NewSQLite(dsn string) *SQLite {
	if dsn == "" {
		dsn = "./database.db"
	}
	return &SQLite{
		conn: conn{driver: DriverSQLite},
		dsn:  withSQLiteParams(dsn),
	}
}

// withSQLiteParams turns on foreign keys and a busy timeout unless the DSN
// already says otherwise.
func withSQLiteParams(dsn string) string {
	params := []string{}
	if !strings.Contains(dsn, "_foreign_keys") && !strings.Contains(dsn, "_fk") {
		params = append(params, "_foreign_keys=on")
	}
	if !strings.Contains(dsn, "_busy_timeout") {
		params = append(params, "_busy_timeout=5000")
	}
	if len(params) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

func (s *SQLite) InitDB() error {
	var err error
	s.db, err = sql.Open(DriverSQLite, s.dsn)
	if err != nil {
		return err
	}

	// Every connection to :memory: is a separate database.
	if strings.Contains(s.dsn, ":memory:") {
		s.db.SetMaxOpenConns(1)
	}

	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := MigrateUp(s.db, DriverSQLite); err != nil {
		return err
	}

	dbLogger.Info().Str("driver", DriverSQLite).Msg("Database initialized")
	return nil
}
