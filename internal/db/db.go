package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// The "sqlite" driver glebarez/sqlite builds on. A second registration
	// under that name (modernc.org/sqlite) panics at init.
	_ "github.com/glebarez/go-sqlite"
)

// MemoryPath selects an in-memory database.
const MemoryPath = ":memory:"

// OpenDB opens the SQLite ledger at path and brings its schema up to date.
// WAL mode, foreign keys and a busy timeout are set on open. An in-memory
// database is pinned to a single connection so every caller sees the same data.
func OpenDB(path string) (*sql.DB, error) {
	if path != MemoryPath {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// dsn carries the per-connection pragmas in the connection string so every
// pooled connection of a file database gets them, not just the first.
func dsn(path string) string {
	if path == MemoryPath {
		return path
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}
