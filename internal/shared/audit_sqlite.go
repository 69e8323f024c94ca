package shared

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// SQLiteAuditLogger writes records into the SQLite audit_logs table.
// occurred_at holds unix milliseconds.
type SQLiteAuditLogger struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteAuditLogger returns a new SQLiteAuditLogger.
func NewSQLiteAuditLogger(db *sql.DB) *SQLiteAuditLogger {
	return &SQLiteAuditLogger{db: db, now: time.Now}
}

// Record persists the log entry. A zero ActorID is stored as NULL and a
// zero At as the current time.
func (l *SQLiteAuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	meta := log.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	var actor any
	if log.ActorID != 0 {
		actor = log.ActorID
	}
	at := log.At
	if at.IsZero() {
		at = l.now()
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		actor, log.Action, log.Entity, log.EntityID, string(metaJSON), at.UnixMilli())
	return err
}
