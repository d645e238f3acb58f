package database

import (
	"errors"
	"fmt"

	"discord-summarizer/models"

	"github.com/mattn/go-sqlite3"
)

// wrapErr turns a driver error into a models.StorageError, naming the
// SQLite condition when it is one callers may want to tell apart.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrBusy:
			err = fmt.Errorf("database busy: %w", sqliteErr)
		case sqlite3.ErrLocked:
			err = fmt.Errorf("database table locked: %w", sqliteErr)
		case sqlite3.ErrConstraint:
			err = fmt.Errorf("constraint violation: %w", sqliteErr)
		case sqlite3.ErrCorrupt, sqlite3.ErrNotADB:
			err = fmt.Errorf("database file is damaged: %w", sqliteErr)
		}
	}

	return &models.StorageError{Op: op, Err: err}
}
