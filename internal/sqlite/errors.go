package sqlite

import (
	"errors"
	"fmt"
	"strings"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rpggio/nowloop/internal/repository"
)

// storeError maps a failed write to the repository sentinels. Constraint
// failures name the entity; anything else is wrapped as "failed to <op>".
func storeError(err error, op, entity string) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", repository.ErrConflict, entity)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %s", repository.ErrForeignKeyViolation, entity)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}

func constraintCode(err error) (int, bool) {
	var se *msqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := constraintCode(err); ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isUniqueViolation also matches primary keys; loop ids are caller-chosen.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := constraintCode(err); ok {
		switch code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY constraint failed")
}
