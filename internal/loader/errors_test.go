package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassifyRowError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		rowErr  bool
		contain string
	}{
		{
			name:    "unique violation",
			err:     &pgconn.PgError{Code: "23505", Detail: "Key (email)=(a@b.c) already exists."},
			rowErr:  true,
			contain: "uniqueness violation",
		},
		{
			name:    "foreign key violation",
			err:     &pgconn.PgError{Code: "23503", Detail: "Key (brand_id)=(9) is not present in table \"brands\"."},
			rowErr:  true,
			contain: "referential integrity violation",
		},
		{
			name:    "not null violation",
			err:     &pgconn.PgError{Code: "23502", ColumnName: "store_name"},
			rowErr:  true,
			contain: "store_name",
		},
		{
			name:    "check violation",
			err:     &pgconn.PgError{Code: "23514", ConstraintName: "stocks_quantity_check"},
			rowErr:  true,
			contain: "stocks_quantity_check",
		},
		{
			name:    "numeric overflow",
			err:     &pgconn.PgError{Code: "22003", Message: "numeric field overflow"},
			rowErr:  true,
			contain: "rejected by database",
		},
		{
			name:   "wrapped pg error",
			err:    fmt.Errorf("exec failed: %w", &pgconn.PgError{Code: "23505", Detail: "dup"}),
			rowErr: true,
		},
		{
			name:   "connection failure",
			err:    &pgconn.PgError{Code: "57P01", Message: "terminating connection"},
			rowErr: false,
		},
		{
			name:   "context cancelled",
			err:    context.Canceled,
			rowErr: false,
		},
		{
			name:   "plain error",
			err:    errors.New("dial tcp: connection refused"),
			rowErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, isRowErr := classifyRowError(tt.err)
			if isRowErr != tt.rowErr {
				t.Fatalf("Expected row error %v, got %v", tt.rowErr, isRowErr)
			}
			if !tt.rowErr && got != tt.err {
				t.Error("Infrastructure errors should come back unchanged")
			}
			if tt.contain != "" && !strings.Contains(got.Error(), tt.contain) {
				t.Errorf("Expected message containing %q, got %q", tt.contain, got.Error())
			}
		})
	}
}

func TestRowErrorFormat(t *testing.T) {
	inner := &DuplicateError{Column: "brand_name", Value: "Electra"}
	err := RowError{Table: "brands", Line: 7, Err: inner}

	want := `brands line 7: duplicate brand_name "Electra"`
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("RowError should unwrap to its cause")
	}
}

func TestStageErrorFormat(t *testing.T) {
	one := newStageError(StageLookups, []RowError{
		{Table: "brands", Line: 3, Err: errors.New("brand_name is required")},
	}, 20)
	if !strings.Contains(one.Error(), "1 row rejected") {
		t.Errorf("Unexpected message: %q", one.Error())
	}
	if !strings.Contains(one.Error(), "line 3") {
		t.Errorf("Single rejection should show the row: %q", one.Error())
	}

	var many []RowError
	for i := 0; i < 30; i++ {
		many = append(many, RowError{Table: "orders", Line: i + 2, Err: errors.New("bad")})
	}
	capped := newStageError(StageSales, many, 20)
	if len(capped.Rows) != 20 {
		t.Errorf("Expected 20 reported rows, got %d", len(capped.Rows))
	}
	if capped.Truncated != 10 {
		t.Errorf("Expected 10 truncated rows, got %d", capped.Truncated)
	}
	if !strings.Contains(capped.Error(), "30 rows rejected") {
		t.Errorf("Message should count every rejection: %q", capped.Error())
	}
}
