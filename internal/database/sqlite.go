package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// sqliteParams makes time values round-trip in a parseable layout and
// enables foreign keys on every connection.
const sqliteParams = "_time_format=sqlite&_pragma=foreign_keys(1)"

// OpenSQLite opens (and creates, if needed) a SQLite database and applies
// the embedded schema.
//
// The pool is capped at a single connection. The core is single-writer per
// request anyway, and ":memory:" databases are per-connection in SQLite.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		path = "obsrecords.db"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?"+sqliteParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := applySQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func applySQLiteSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	return nil
}
