package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestMapDBError_NilError(t *testing.T) {
	if err := MapDBError(nil); err != nil {
		t.Errorf("MapDBError(nil) = %v, want nil", err)
	}
}

func TestMapDBError_ContextErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode ErrorCode
	}{
		{name: "deadline exceeded", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(MapDBError(tt.err)); got != tt.wantCode {
				t.Errorf("MapDBError() code = %v, want %v", got, tt.wantCode)
			}
		})
	}
}

func TestMapDBError_NoRows(t *testing.T) {
	err := MapDBError(pgx.ErrNoRows)
	if !IsNotFound(err) {
		t.Errorf("MapDBError(pgx.ErrNoRows) should be NotFound, got %v", GetCode(err))
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Error("mapped error should wrap pgx.ErrNoRows")
	}
}

func TestMapDBError_PgErrors(t *testing.T) {
	tests := []struct {
		name         string
		pgErr        *pgconn.PgError
		wantCode     ErrorCode
		wantField    string
		wantContains string
	}{
		{
			name: "duplicate barn id from detail",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.UniqueViolation,
				ConstraintName: "barns_pkey",
				Detail:         `Key (id)=(b1) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "id",
		},
		{
			name: "unique violation prefers column metadata",
			pgErr: &pgconn.PgError{
				Code:       pgerrcode.UniqueViolation,
				ColumnName: "name",
				Detail:     `Key (lower(name))=(north) already exists.`,
			},
			wantCode:  ErrCodeConflict,
			wantField: "name",
		},
		{
			name: "current barn references missing barn",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.ForeignKeyViolation,
				ConstraintName: "users_current_barn_id_fkey",
				Detail:         `Key (current_barn_id)=(b9) is not present in table "barns".`,
			},
			wantCode:     ErrCodeForeignKey,
			wantField:    "current_barn_id",
			wantContains: "referenced barn does not exist",
		},
		{
			name: "barn still referenced by memberships",
			pgErr: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(b1) is still referenced from table "user_barns".`,
			},
			wantCode:     ErrCodeForeignKey,
			wantField:    "id",
			wantContains: "barn membership",
		},
		{
			name: "foreign key inferred from constraint",
			pgErr: &pgconn.PgError{
				Code:           pgerrcode.ForeignKeyViolation,
				ConstraintName: "user_barns_barn_id_fkey",
			},
			wantCode:     ErrCodeForeignKey,
			wantContains: "barn does not exist",
		},
		{
			name: "not null violation",
			pgErr: &pgconn.PgError{
				Code:       pgerrcode.NotNullViolation,
				ColumnName: "name",
			},
			wantCode:  ErrCodeValidation,
			wantField: "name",
		},
		{
			name:     "check violation without column",
			pgErr:    &pgconn.PgError{Code: pgerrcode.CheckViolation},
			wantCode: ErrCodeValidation,
		},
		{
			name:     "server shutting down",
			pgErr:    &pgconn.PgError{Code: pgerrcode.AdminShutdown},
			wantCode: ErrCodeUnavailable,
		},
		{
			name:     "unhandled code",
			pgErr:    &pgconn.PgError{Code: pgerrcode.DivisionByZero},
			wantCode: ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MapDBError(fmt.Errorf("exec: %w", tt.pgErr))
			if got := GetCode(err); got != tt.wantCode {
				t.Fatalf("code = %v, want %v", got, tt.wantCode)
			}
			if got := GetField(err); got != tt.wantField {
				t.Errorf("field = %q, want %q", got, tt.wantField)
			}
			if tt.wantContains != "" && !strings.Contains(err.Error(), tt.wantContains) {
				t.Errorf("message %q does not contain %q", err.Error(), tt.wantContains)
			}
			var pgErr *pgconn.PgError
			if !errors.As(err, &pgErr) {
				t.Error("mapped error should unwrap to *pgconn.PgError")
			}
		})
	}
}

func TestMapDBError_Unrecognised(t *testing.T) {
	base := errors.New("boom")
	if got := MapDBError(base); got != base {
		t.Errorf("MapDBError() = %v, want original error", got)
	}
}
