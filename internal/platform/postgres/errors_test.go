package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "study_sessions",
		ColumnName:     "status",
		ConstraintName: "test_constraint",
	}
}

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, m.err }
func (m mockResult) RowsAffected() (int64, error) { return m.rowsAffected, m.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", newPgError("23505"), store.ErrDuplicate},
		{"foreign key violation", newPgError("23503"), store.ErrInvalidEntity},
		{"check violation", newPgError("23514"), store.ErrInvalidEntity},
		{"not null violation", newPgError("23502"), store.ErrInvalidEntity},
		{"connection failure", newPgError("08006"), store.ErrStorageUnavailable},
		{"admin shutdown", newPgError("57P01"), store.ErrStorageUnavailable},
		{"too many connections", newPgError("53300"), store.ErrStorageUnavailable},
		{"bad driver connection", driver.ErrBadConn, store.ErrStorageUnavailable},
		{"connection done", fmt.Errorf("exec: %w", sql.ErrConnDone), store.ErrStorageUnavailable},
		{"deadline exceeded", context.DeadlineExceeded, store.ErrStorageUnavailable},
		{"network error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, store.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := postgres.MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.expected)
		})
	}
}

func TestMapErrorPassthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.MapError(nil))

	plain := errors.New("syntax error at or near")
	assert.Equal(t, plain, postgres.MapError(plain))

	serialization := newPgError("22P02")
	mapped := postgres.MapError(serialization)
	assert.False(t, store.IsRetryable(mapped))
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()

	assert.False(t, postgres.IsConnectionError(nil))
	assert.False(t, postgres.IsConnectionError(newPgError("23505")))
	assert.False(t, postgres.IsConnectionError(context.Canceled))
	assert.True(t, postgres.IsConnectionError(newPgError("08001")))
	assert.True(t, postgres.IsConnectionError(newPgError("57P03")))
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("wrapped: %w", newPgError("23505"))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("generic")))
	assert.True(t, postgres.IsCheckConstraintViolation(newPgError("23514")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrSessionNotFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, store.ErrSessionNotFound), store.ErrSessionNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)

	resultErr := errors.New("driver does not support RowsAffected")
	assert.ErrorIs(t, postgres.CheckRowsAffected(mockResult{err: resultErr}, nil), resultErr)
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	err := postgres.MapUniqueViolation(newPgError("23505"), store.ErrSessionExists)
	assert.ErrorIs(t, err, store.ErrSessionExists)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	other := errors.New("other")
	assert.Equal(t, other, postgres.MapUniqueViolation(other, store.ErrSessionExists))
}
