package sqlite

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/selfcast/onboarding/internal/persistence"
)

// mapError maps SQLite driver errors to persistence layer sentinels. The
// driver reports constraint failures as plain strings, so matching is by
// substring.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return persistence.ErrConstraintViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return persistence.ErrConstraintViolation
	}

	return err
}
