package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rfid-attendance/attendance/internal/auth"
	"github.com/rfid-attendance/attendance/internal/platform/db"
	"github.com/rfid-attendance/attendance/internal/shared"
	"github.com/rfid-attendance/attendance/internal/users"
)

// Store bundles the persistence backends selected by STORE_DRIVER.
type Store struct {
	Users    users.Repository
	Sessions auth.SessionStore
	Audit    users.AuditRecorder

	ping  func(ctx context.Context) error
	close func()
}

// OpenStore connects to the configured database and applies migrations when enabled.
func OpenStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*Store, error) {
	switch cfg.StoreDriver {
	case StoreDriverSQLite:
		return openSQLiteStore(ctx, cfg, logger)
	case StoreDriverPostgres:
		return openPostgresStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("app: unsupported store driver %q", cfg.StoreDriver)
	}
}

func openPostgresStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*Store, error) {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MaxConnIdleTime: cfg.PGMaxConnIdleTime,
		AppName:         cfg.AppName,
	})
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := db.MigratePool(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return newPostgresStore(pool), nil
}

func newPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:    users.NewRepository(pool),
		Sessions: auth.NewPGSessionStore(pool),
		Audit:    shared.NewAuditLogger(pool),
		ping:     pool.Ping,
		close:    pool.Close,
	}
}

func openSQLiteStore(ctx context.Context, cfg *Config, logger *slog.Logger) (*Store, error) {
	sqlDB, err := db.OpenSQLite(ctx, cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, sqlDB, db.DialectSQLite, logger); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}
	return NewSQLiteStore(sqlDB, logger), nil
}

// NewSQLiteStore wraps an open SQLite handle.
func NewSQLiteStore(sqlDB *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		Users:    users.NewSQLiteRepository(sqlDB),
		Sessions: auth.NewSQLiteSessionStore(sqlDB),
		Audit:    shared.NewSQLiteAuditLogger(sqlDB),
		ping:     sqlDB.PingContext,
		close: func() {
			if err := sqlDB.Close(); err != nil && logger != nil {
				logger.Warn("sqlite close", slog.Any("error", err))
			}
		},
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.ping == nil {
		return fmt.Errorf("app: store not open")
	}
	return s.ping(ctx)
}

// Close releases the underlying connections.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}
