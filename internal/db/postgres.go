package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type Postgres struct {
	conn
	dsn          string
	maxOpenConns int
}

var _ DB = (*Postgres)(nil)

func NewPostgres(dsn string, maxOpenConns int) *Postgres {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	return &Postgres{
		conn:         conn{driver: DriverPostgres},
		dsn:          dsn,
		maxOpenConns: maxOpenConns,
	}
}

func (p *Postgres) InitDB() error {
	var err error
	p.db, err = sql.Open(DriverPostgres, p.dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	p.db.SetMaxOpenConns(p.maxOpenConns)
	p.db.SetMaxIdleConns(p.maxOpenConns / 2)
	p.db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := MigrateUp(p.db, DriverPostgres); err != nil {
		return err
	}

	dbLogger.Info().
		Str("driver", DriverPostgres).
		Int("max_open_conns", p.maxOpenConns).
		Msg("Database initialized")
	return nil
}
