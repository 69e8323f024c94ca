package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfid-attendance/attendance/internal/auth"
	"github.com/rfid-attendance/attendance/internal/platform/db"
	"github.com/rfid-attendance/attendance/internal/platform/password"
	"github.com/rfid-attendance/attendance/internal/users"
	_ "github.com/rfid-attendance/attendance/testing"
)

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &Config{
		StoreDriver:    StoreDriverSQLite,
		SQLitePath:     filepath.Join(t.TempDir(), "nested", "attendance.db"),
		MigrateOnStart: true,
	}
	store, err := OpenStore(ctx, cfg, nil)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Ping(ctx))
	require.NotNil(t, store.Audit)

	id, err := store.Users.Create(ctx, users.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	require.NoError(t, store.Sessions.Create(ctx, auth.SessionRecord{
		ID:        "s1",
		UserID:    id,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	list, err := store.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ada@example.com", list[0].Email)
}

func TestSQLiteStoreRecordsAudit(t *testing.T) {
	ctx := context.Background()
	sqlDB, err := db.OpenSQLite(ctx, filepath.Join(t.TempDir(), "attendance.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, sqlDB, db.DialectSQLite, nil))
	store := NewSQLiteStore(sqlDB, nil)
	t.Cleanup(store.Close)

	service := users.NewService(store.Users, password.NewBcrypt(4), users.ServiceConfig{Audit: store.Audit})
	_, err = service.CreateUser(ctx, users.CreateInput{
		Name:                 "Ada",
		Email:                "ada@example.com",
		Password:             "secret123",
		PasswordConfirmation: "secret123",
	})
	require.NoError(t, err)

	var action, entityID string
	require.NoError(t, sqlDB.QueryRowContext(ctx, `SELECT action, entity_id FROM audit_logs`).Scan(&action, &entityID))
	assert.Equal(t, "user.created", action)
	assert.Equal(t, "1", entityID)
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &Config{StoreDriver: "mysql"}, nil)
	require.Error(t, err)
}

func TestStorePingWhenClosed(t *testing.T) {
	var store *Store
	require.Error(t, store.Ping(context.Background()))
	store.Close()
}
