package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/db"
)

// AuditLog represents a lifecycle transition stored in audit_logs.
type AuditLog struct {
	Actor    string
	Action   string
	Entity   string
	EntityID int64
	From     string
	To       string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs using the connection it was
// built with, usually the transaction performing the transition.
type AuditLogger struct {
	db db.DBTX
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(conn db.DBTX) *AuditLogger {
	return &AuditLogger{db: conn}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil || l.db == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == 0 {
		return errors.New("audit log requires action/entity/entity_id")
	}
	if log.Actor == "" {
		log.Actor = ActorFromContext(ctx)
	}
	if log.At.IsZero() {
		log.At = time.Now()
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	_, err = l.db.Exec(ctx, `INSERT INTO audit_logs (actor, action, entity, entity_id, from_status, to_status, meta, occurred_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8)`,
		log.Actor, log.Action, log.Entity, log.EntityID, log.From, log.To, metaJSON, log.At)
	return err
}
