package store

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "github.com/duckdb/duckdb-go/v2"
)

const dbFilename = "assets.duckdb"

// NewDB opens the DuckDB database at path. ":memory:" or "" opens an in-memory database.
func NewDB(path string) (*sql.DB, error) {
	dsn := path
	if dsn == ":memory:" {
		dsn = ""
	}
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// DataFilePath returns the database file inside folder, or ":memory:" when folder is empty.
func DataFilePath(folder string) string {
	if folder == "" {
		return ":memory:"
	}
	return filepath.Join(folder, dbFilename)
}
