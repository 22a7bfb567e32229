package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens the SQLite ingestion ledger at the given path.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// SQLite serializes writers anyway; a small pool avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate creates the ledger tables. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			source TEXT NOT NULL,
			hash TEXT NOT NULL,
			chunks INTEGER NOT NULL DEFAULT 0,
			ingested_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (collection, source)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents (collection);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
