package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

// affectedOne returns notFound when result touched no rows.
func affectedOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

// isNoRows reports whether err is [sql.ErrNoRows].
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
