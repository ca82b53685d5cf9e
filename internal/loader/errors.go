//-------------------------------------------------------------------------
//
// pgEdge BikeStore Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes the loader reports with specific messages.
const (
	pgCodeUniqueViolation     = "23505"
	pgCodeForeignKeyViolation = "23503"
	pgCodeNotNullViolation    = "23502"
	pgCodeCheckViolation      = "23514"
)

// SQLSTATE class prefixes for errors caused by row data rather than
// infrastructure.
const (
	pgClassDataException       = "22"
	pgClassIntegrityConstraint = "23"
)

// RowError is one rejected CSV row.
type RowError struct {
	Table string
	Line  int
	Err   error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

func (e RowError) Unwrap() error {
	return e.Err
}

// StageError aggregates the row errors that stopped a pipeline stage.
type StageError struct {
	Stage     string
	Rows      []RowError
	Truncated int
}

func (e *StageError) Error() string {
	rejected := len(e.Rows) + e.Truncated
	if rejected == 1 {
		return fmt.Sprintf("stage %s: 1 row rejected: %v", e.Stage, e.Rows[0])
	}
	return fmt.Sprintf("stage %s: %d rows rejected", e.Stage, rejected)
}

// newStageError builds a stage failure from collected row errors,
// keeping at most maxRows of them and counting the rest.
func newStageError(stage string, rows []RowError, maxRows int) *StageError {
	e := &StageError{Stage: stage, Rows: rows}
	if maxRows > 0 && len(rows) > maxRows {
		e.Rows = rows[:maxRows]
		e.Truncated = len(rows) - maxRows
	}
	return e
}

// DuplicateError reports a uniqueness violation detected in the input.
type DuplicateError struct {
	Column string
	Value  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %s %q", e.Column, e.Value)
}

// UnknownReferenceError reports a reference that matches no loaded row.
type UnknownReferenceError struct {
	Column string
	Value  string
}

func (e *UnknownReferenceError) Error() string {
	return fmt.Sprintf("%s %q does not match any loaded row", e.Column, e.Value)
}

// AmbiguousReferenceError reports a name reference that matches more
// than one loaded row.
type AmbiguousReferenceError struct {
	Column string
	Value  string
	Count  int
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("%s %q matches %d rows", e.Column, e.Value, e.Count)
}

// DateError reports a missing or malformed date value.
type DateError struct {
	Column string
	Value  string
}

func (e *DateError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: missing required date", e.Column)
	}
	return fmt.Sprintf("%s: %q is not a day/month/year date", e.Column, e.Value)
}

// classifyRowError rewrites database errors caused by row data into
// readable reasons. The second return is false for infrastructure
// errors (broken connection, cancelled context) that should abort the
// stage instead of being attributed to a row.
func classifyRowError(err error) (error, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err, false
	}

	detail := pgErr.Detail
	if detail == "" {
		detail = pgErr.Message
	}

	switch pgErr.Code {
	case pgCodeUniqueViolation:
		return fmt.Errorf("uniqueness violation: %s", detail), true
	case pgCodeForeignKeyViolation:
		return fmt.Errorf("referential integrity violation: %s", detail), true
	case pgCodeNotNullViolation:
		return fmt.Errorf("column %s must not be empty", pgErr.ColumnName), true
	case pgCodeCheckViolation:
		return fmt.Errorf("constraint %s violated: %s", pgErr.ConstraintName, detail), true
	}

	if len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case pgClassDataException, pgClassIntegrityConstraint:
			return fmt.Errorf("rejected by database: %s", pgErr.Message), true
		}
	}

	return err, false
}
