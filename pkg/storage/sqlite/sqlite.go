// Package sqlite provides a SQLite-backed storage driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/papercomputeco/hues/pkg/storage/sqldriver"
)

// SQLiteDriver implements storage.Driver using SQLite via the shared sql driver.
type SQLiteDriver struct {
	*sqldriver.Driver
}

// NewSQLiteDriver creates a new SQLite-backed driver.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewSQLiteDriver(dbPath string) (*SQLiteDriver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	drv, err := sqldriver.New(context.Background(), db, sqldriver.SQLite)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteDriver{Driver: drv}, nil
}
