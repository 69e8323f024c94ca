package users

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfid-attendance/attendance/internal/platform/db"
)

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unique", err: &pgconn.PgError{Code: "23505"}, want: true},
		{name: "wrapped unique", err: fmt.Errorf("users: create: %w", &pgconn.PgError{Code: "23505"}), want: true},
		{name: "not null", err: &pgconn.PgError{Code: "23502"}, want: false},
		{name: "foreign key", err: fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23503"}), want: false},
		{name: "plain error", err: errors.New("duplicate key"), want: false},
		{name: "nil", err: nil, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isUniqueViolation(tc.err))
		})
	}
}

func TestIsSQLiteUniqueViolation(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.DialectSQLite, nil))

	const insert = `INSERT INTO users (name, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, 0, 0)`
	_, err = conn.ExecContext(ctx, insert, "Ann", "ann@x.com", "h")
	require.NoError(t, err)

	_, dupErr := conn.ExecContext(ctx, insert, "Ann", "ann@x.com", "h")
	require.Error(t, dupErr)
	assert.True(t, isSQLiteUniqueViolation(dupErr))
	assert.True(t, isSQLiteUniqueViolation(fmt.Errorf("users: create: %w", dupErr)))

	_, nullErr := conn.ExecContext(ctx, insert, nil, "bob@x.com", "h")
	require.Error(t, nullErr)
	assert.False(t, isSQLiteUniqueViolation(nullErr))

	_, fkErr := conn.ExecContext(ctx, `INSERT INTO user_sessions (id, user_id, created_at, expires_at) VALUES ('s1', 999, 0, 0)`)
	require.Error(t, fkErr)
	assert.False(t, isSQLiteUniqueViolation(fkErr))

	assert.False(t, isSQLiteUniqueViolation(errors.New("UNIQUE constraint failed")))
}
