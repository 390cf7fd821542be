package shared

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ActionLog is one administrative change stored in audit_logs.
type ActionLog struct {
	ActorID  string
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// ActionRecorder persists administrative changes.
type ActionRecorder interface {
	Record(ctx context.Context, log ActionLog) error
}

// ActionLogger writes records into audit_logs.
type ActionLogger struct {
	pool *pgxpool.Pool
}

// NewActionLogger returns a new ActionLogger.
func NewActionLogger(pool *pgxpool.Pool) *ActionLogger {
	return &ActionLogger{pool: pool}
}

// ValidateActionLog checks the fields every record needs.
func ValidateActionLog(log ActionLog) error {
	if log.ActorID == "" || log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires actor/action/entity/entity_id")
	}
	return nil
}

// Record persists the log entry. A zero At is stored as the database time.
func (l *ActionLogger) Record(ctx context.Context, log ActionLog) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if err := ValidateActionLog(log); err != nil {
		return err
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}

var _ ActionRecorder = (*ActionLogger)(nil)
