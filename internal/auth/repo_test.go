package auth_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfid-attendance/attendance/internal/auth"
	"github.com/rfid-attendance/attendance/internal/platform/db"
	"github.com/rfid-attendance/attendance/internal/users"
)

func TestSQLiteSessionStorePurge(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.DialectSQLite, nil))

	repo := users.NewSQLiteRepository(conn)
	userID, err := repo.Create(ctx, users.User{Name: "Ann", Email: "ann@x.com", PasswordHash: "h"})
	require.NoError(t, err)

	store := auth.NewSQLiteSessionStore(conn)
	now := time.Now().UTC()
	require.NoError(t, store.Create(ctx, auth.SessionRecord{ID: "old", UserID: userID, CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, store.Create(ctx, auth.SessionRecord{ID: "live", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour), IP: "10.0.0.1"}))

	service := auth.NewService(repo, nil, store)
	purged, err := service.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	require.NoError(t, store.Delete(ctx, "live"))
	purged, err = store.DeleteExpired(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)
}

func TestSQLiteSessionsCascadeOnUserDelete(t *testing.T) {
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(ctx, conn, db.DialectSQLite, nil))

	repo := users.NewSQLiteRepository(conn)
	userID, err := repo.Create(ctx, users.User{Name: "Ann", Email: "ann@x.com", PasswordHash: "h"})
	require.NoError(t, err)
	store := auth.NewSQLiteSessionStore(conn)
	now := time.Now().UTC()
	require.NoError(t, store.Create(ctx, auth.SessionRecord{ID: "s1", UserID: userID, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}))

	require.NoError(t, repo.Delete(ctx, userID))

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_sessions`).Scan(&count))
	assert.Zero(t, count)
}
