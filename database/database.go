package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// InitDB opens the SQLite database at dbPath, creating the file and its
// directory if needed.
//
// The pool is capped at a single connection: concurrent channel syncs share
// one file, and each store operation runs on that connection in turn instead
// of holding a long-lived transaction.
func InitDB(dbPath string) (*sql.DB, error) {
	// Ensure the directory for the database file exists.
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Ping the database to verify the connection.
	if err = db.Ping(); err != nil {
		db.Close() // Close the connection if ping fails
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	log.Println("Successfully connected to the database at", dbPath)
	return db, nil
}

// Open initializes the database at dbPath, applies the schema and returns a
// ready MessageDB.
func Open(dbPath string, opts ...Option) (*MessageDB, error) {
	db, err := InitDB(dbPath)
	if err != nil {
		return nil, wrapErr("open", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, wrapErr("migrate", err)
	}

	return NewMessageDB(db, opts...), nil
}
