package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// The storage layer reports failures as a closed set of typed errors so
// callers never inspect driver message strings to pick an HTTP status.
var (
	ErrNotFound            = errors.New("record not found")
	ErrForeignKeyViolation = errors.New("record is referenced by other rows")
)

// UniqueViolationError reports which constraint rejected the write.
type UniqueViolationError struct {
	Constraint string
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique constraint violated: %s", e.Constraint)
}

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// ClassifyError maps driver errors onto the typed set. Errors that are not
// recognized pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return &UniqueViolationError{Constraint: pgErr.ConstraintName}
		case codeForeignKeyViolation:
			return ErrForeignKeyViolation
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique-constraint failure,
// optionally restricted to a specific constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var uv *UniqueViolationError
	if !errors.As(err, &uv) {
		return false
	}
	return constraint == "" || uv.Constraint == constraint
}
