package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm", gorm.ErrDuplicatedKey, true},
		{"pgx", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), true},
		{"sqlite", errors.New("constraint failed: UNIQUE constraint failed: invoices.invoice_number (2067)"), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry"), true},
		{"other", errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsDuplicateKeyErr(tc.err))
		})
	}
}

func TestIsForeignKeyErr(t *testing.T) {
	assert.True(t, IsForeignKeyErr(gorm.ErrForeignKeyViolated))
	assert.True(t, IsForeignKeyErr(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsForeignKeyErr(errors.New("FOREIGN KEY constraint failed (787)")))
	assert.False(t, IsForeignKeyErr(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsForeignKeyErr(nil))
}

func TestDialect(t *testing.T) {
	for _, typ := range []string{"postgres", "mysql", "sqlite", "sqlite3"} {
		d, err := Dialect(Config{Type: typ, Path: "test.db"})
		assert.NoError(t, err, typ)
		assert.NotNil(t, d, typ)
	}

	_, err := Dialect(Config{Type: "oracle"})
	assert.Error(t, err)
	assert.True(t, IsSQLite("sqlite3"))
	assert.False(t, IsSQLite("postgres"))
}
