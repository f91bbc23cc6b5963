package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// Conflict is a unique-key violation. Table is filled in when the driver
// reports it (postgres, sqlite).
type Conflict struct {
	Table      string
	Constraint string
	Err        error
}

func (c *Conflict) Error() string {
	if c.Constraint != "" {
		return "unique violation on " + c.Constraint
	}
	if c.Table != "" {
		return "unique violation on " + c.Table
	}
	return "unique violation"
}

func (c *Conflict) Unwrap() error { return c.Err }

// AsConflict recognizes unique-key violations from the postgres, mysql and
// sqlite drivers.
func AsConflict(err error) (*Conflict, bool) {
	if err == nil {
		return nil, false
	}

	var existing *Conflict
	if errors.As(err, &existing) {
		return existing, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &Conflict{Table: pgErr.TableName, Constraint: pgErr.ConstraintName, Err: err}, true
	}

	msg := err.Error()
	if i := strings.Index(msg, "UNIQUE constraint failed: "); i >= 0 {
		column := msg[i+len("UNIQUE constraint failed: "):]
		table, _, _ := strings.Cut(column, ".")
		return &Conflict{Table: strings.TrimSpace(table), Err: err}, true
	}
	if strings.Contains(msg, "Error 1062") {
		return &Conflict{Constraint: mysqlKey(msg), Err: err}, true
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return &Conflict{Err: err}, true
	}
	return nil, false
}

// mysqlKey pulls "ux_name" out of "... for key 'table.ux_name'".
func mysqlKey(msg string) string {
	_, key, ok := strings.Cut(msg, "for key '")
	if !ok {
		return ""
	}
	key, _, _ = strings.Cut(key, "'")
	if i := strings.LastIndex(key, "."); i >= 0 {
		key = key[i+1:]
	}
	return key
}
