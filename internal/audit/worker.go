package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/harapan-foundation/harapan/internal/jobs"
	"github.com/harapan-foundation/harapan/jobs"
)

const defaultRetentionDays = 180

// Writer persists and expires access events.
type Writer interface {
	Insert(ctx context.Context, ev AccessEvent) error
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// TaskHandler processes audit tasks on the worker.
type TaskHandler struct {
	store   Writer
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
	now     func() time.Time
}

// NewTaskHandler wires the worker side of the audit queue.
func NewTaskHandler(store Writer, logger *slog.Logger, metrics *jobmetrics.Metrics) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{store: store, logger: logger, metrics: metrics, now: time.Now}
}

// Handlers lists the task registrations for jobs.NewWorker.
func (h *TaskHandler) Handlers() []jobs.TaskHandler {
	return []jobs.TaskHandler{
		{Type: TaskAccessDenied, Handler: h.HandleAccessDenied},
		{Type: TaskPrune, Handler: h.HandlePrune},
	}
}

// HandleAccessDenied stores one event. Undecodable payloads are dropped.
func (h *TaskHandler) HandleAccessDenied(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskAccessDenied)
	ev, err := DecodeAccessDenied(t)
	if err != nil {
		h.logger.Warn("audit task dropped", slog.Any("error", err))
		return tracker.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}
	if err := h.store.Insert(ctx, ev); err != nil {
		return tracker.End(err)
	}
	h.logger.Debug("access event stored",
		slog.String("event_id", ev.ID.String()),
		slog.String("component", ev.Component),
		slog.String("outcome", ev.Outcome),
		slog.String("path", ev.Path),
	)
	return tracker.End(nil)
}

// HandlePrune deletes events past the retention window.
func (h *TaskHandler) HandlePrune(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track(TaskPrune)
	var payload PrunePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
		}
	}
	days := payload.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	cutoff := h.now().UTC().AddDate(0, 0, -days)
	removed, err := h.store.Prune(ctx, cutoff)
	if err != nil {
		return tracker.End(err)
	}
	h.metrics.AddPruned(TaskPrune, removed)
	h.logger.Info("access events pruned", slog.Int64("removed", removed), slog.Time("cutoff", cutoff))
	return tracker.End(nil)
}
