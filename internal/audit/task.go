package audit

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/harapan-foundation/harapan/jobs"
)

const (
	// TaskAccessDenied carries one AccessEvent to the worker.
	TaskAccessDenied = "audit:access_denied"
	// TaskPrune removes events older than the retention window.
	TaskPrune = "audit:prune"
)

// PrunePayload configures one prune run.
type PrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAccessDeniedTask encodes ev. The event ID doubles as the task ID so a
// retried enqueue never stores the same denial twice.
func NewAccessDeniedTask(ev AccessEvent) (*asynq.Task, error) {
	if ev.ID == uuid.Nil {
		return nil, fmt.Errorf("audit: event without id")
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccessDenied, body,
		asynq.Queue(jobs.QueueAudit),
		asynq.TaskID(ev.ID.String()),
		asynq.MaxRetry(5),
	), nil
}

// DecodeAccessDenied reverses NewAccessDeniedTask.
func DecodeAccessDenied(t *asynq.Task) (AccessEvent, error) {
	var ev AccessEvent
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return AccessEvent{}, fmt.Errorf("audit: decode %s: %w", t.Type(), err)
	}
	if ev.ID == uuid.Nil {
		return AccessEvent{}, fmt.Errorf("audit: decode %s: missing id", t.Type())
	}
	return ev, nil
}

// NewPruneTask builds the retention task registered with the scheduler.
func NewPruneTask(retentionDays int) (*asynq.Task, error) {
	body, err := json.Marshal(PrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPrune, body, asynq.Queue(jobs.QueueAudit)), nil
}
