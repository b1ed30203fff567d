package db

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

const failedToInitDB = "Failed to initialize database: %v"

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	db := NewSQLite(":memory:")
	if err := db.InitDB(); err != nil {
		t.Fatalf(failedToInitDB, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow(context.Background(), "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
	return err == nil && name == table
}

func TestRebind(t *testing.T) {
	testCases := []struct {
		name     string
		driver   string
		query    string
		expected string
	}{
		{name: "sqlite untouched", driver: DriverSQLite, query: "SELECT * FROM posts WHERE id = ?", expected: "SELECT * FROM posts WHERE id = ?"},
		{name: "postgres single", driver: DriverPostgres, query: "SELECT * FROM posts WHERE id = ?", expected: "SELECT * FROM posts WHERE id = $1"},
		{name: "postgres many", driver: DriverPostgres, query: "UPDATE posts SET title = ?, slug = ? WHERE id = ?", expected: "UPDATE posts SET title = $1, slug = $2 WHERE id = $3"},
		{name: "postgres no params", driver: DriverPostgres, query: "SELECT 1", expected: "SELECT 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Rebind(tc.driver, tc.query); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestWithSQLiteParams(t *testing.T) {
	testCases := []struct {
		dsn      string
		expected string
	}{
		{dsn: "./database.db", expected: "./database.db?_foreign_keys=on&_busy_timeout=5000"},
		{dsn: ":memory:?cache=shared", expected: ":memory:?cache=shared&_foreign_keys=on&_busy_timeout=5000"},
		{dsn: "x.db?_fk=1&_busy_timeout=100", expected: "x.db?_fk=1&_busy_timeout=100"},
	}

	for _, tc := range testCases {
		t.Run(tc.dsn, func(t *testing.T) {
			if got := withSQLiteParams(tc.dsn); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	d, err := New(DriverSQLite, ":memory:", 1)
	if err != nil || d.Driver() != DriverSQLite {
		t.Errorf("Expected sqlite driver, got %v, %v", d, err)
	}

	d, err = New(DriverPostgres, "postgres://localhost/x", 5)
	if err != nil || d.Driver() != DriverPostgres {
		t.Errorf("Expected postgres driver, got %v, %v", d, err)
	}

	if _, err := New("mysql", "", 1); err == nil {
		t.Error("Expected error for unsupported driver")
	}
}

func TestSQLiteInitDB(t *testing.T) {
	db := newTestSQLite(t)

	if err := db.Get().Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	for _, table := range []string{"posts", "post_stats", "post_views", "users", "schema_migrations"} {
		if !tableExists(t, db, table) {
			t.Errorf("Expected table %s to exist", table)
		}
	}

	version, dirty, err := MigrationVersion(db.Get(), DriverSQLite)
	if err != nil {
		t.Fatalf("Failed to read migration version: %v", err)
	}
	if version != 3 || dirty {
		t.Errorf("Expected clean version 3, got %d (dirty=%v)", version, dirty)
	}

	t.Run("migrations are idempotent", func(t *testing.T) {
		if err := MigrateUp(db.Get(), DriverSQLite); err != nil {
			t.Errorf("Expected second MigrateUp to be a no-op, got %v", err)
		}
	})

	t.Run("down rolls back one step", func(t *testing.T) {
		if err := MigrateDown(db.Get(), DriverSQLite); err != nil {
			t.Fatalf("MigrateDown: %v", err)
		}
		if tableExists(t, db, "users") {
			t.Error("Expected users table to be dropped")
		}
		version, _, _ := MigrationVersion(db.Get(), DriverSQLite)
		if version != 2 {
			t.Errorf("Expected version 2, got %d", version)
		}
	})
}

func TestSQLiteQueryAndExec(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := db.Exec(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		"u1", "admin@example.com", "hash", now)
	if err != nil {
		t.Fatalf("Exec insert failed: %v", err)
	}

	rows, err := db.Query(ctx, `SELECT email FROM users WHERE id = ?`, "u1")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			rows.Close()
			t.Fatal(err)
		}
		emails = append(emails, email)
	}
	// The :memory: pool holds a single connection; release it before the next statement.
	if err := rows.Close(); err != nil {
		t.Fatal(err)
	}
	if len(emails) != 1 || emails[0] != "admin@example.com" {
		t.Errorf("Expected [admin@example.com], got %v", emails)
	}

	if _, err := db.Exec(ctx, "INVALID SQL SYNTAX"); err == nil {
		t.Error("Expected error for invalid SQL")
	}
}

func TestUninitialized(t *testing.T) {
	db := NewSQLite(":memory:")

	if _, err := db.Query(context.Background(), "SELECT 1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from Query, got %v", err)
	}
	if _, err := db.Exec(context.Background(), "SELECT 1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from Exec, got %v", err)
	}
	var n int
	if err := db.QueryRow(context.Background(), "SELECT 1").Scan(&n); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from QueryRow, got %v", err)
	}
	if err := RunInTransaction(context.Background(), db, func(ctx context.Context) error { return nil }); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Expected ErrNotInitialized from RunInTransaction, got %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Expected Close on unopened db to succeed, got %v", err)
	}
}

func TestRunInTransaction(t *testing.T) {
	db := newTestSQLite(t)
	ctx := context.Background()
	insert := `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`

	countUsers := func() int {
		var n int
		if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
			t.Fatal(err)
		}
		return n
	}

	t.Run("commit", func(t *testing.T) {
		err := RunInTransaction(ctx, db, func(ctx context.Context) error {
			_, err := db.Exec(ctx, insert, "u1", "a@example.com", "h", time.Now().UTC())
			return err
		})
		if err != nil {
			t.Fatalf("Expected commit, got %v", err)
		}
		if n := countUsers(); n != 1 {
			t.Errorf("Expected 1 user, got %d", n)
		}
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := RunInTransaction(ctx, db, func(ctx context.Context) error {
			if _, err := db.Exec(ctx, insert, "u2", "b@example.com", "h", time.Now().UTC()); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Expected boom, got %v", err)
		}
		if n := countUsers(); n != 1 {
			t.Errorf("Expected rollback to leave 1 user, got %d", n)
		}
	})

	t.Run("nested reuses outer transaction", func(t *testing.T) {
		err := RunInTransaction(ctx, db, func(outer context.Context) error {
			outerTx, _ := GetTx(outer)
			return RunInTransaction(outer, db, func(inner context.Context) error {
				innerTx, _ := GetTx(inner)
				if innerTx != outerTx {
					t.Error("Expected the inner call to reuse the outer transaction")
				}
				return nil
			})
		})
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})
}
