package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"

	"github.com/harapan-foundation/harapan/internal/rbac"
)

const (
	enqueueTimeout = 250 * time.Millisecond
	// enqueueBackoff pauses recording after a failed enqueue so a queue
	// outage costs one timeout per window rather than one per denial.
	enqueueBackoff = 30 * time.Second
)

// Enqueuer is the part of the asynq client the recorder needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Recorder forwards denials to the audit queue. Failures are logged and never
// reach the request that was denied.
type Recorder struct {
	queue   Enqueuer
	logger  *slog.Logger
	timeout time.Duration
	backoff time.Duration
	now     func() time.Time

	pausedUntil atomic.Int64
}

// NewRecorder builds a Recorder on top of queue.
func NewRecorder(queue Enqueuer, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{queue: queue, logger: logger, timeout: enqueueTimeout, backoff: enqueueBackoff, now: time.Now}
}

// RecordDenial implements rbac.DenialRecorder.
func (r *Recorder) RecordDenial(ctx context.Context, d rbac.Denial) {
	if r == nil || r.queue == nil {
		return
	}
	now := r.now()
	if now.UnixNano() < r.pausedUntil.Load() {
		r.logger.Debug("audit recording paused", slog.String("path", d.Path))
		return
	}
	ev := EventFromDenial(d, now)
	task, err := NewAccessDeniedTask(ev)
	if err != nil {
		r.logger.Warn("audit encode", slog.Any("error", err))
		return
	}
	// outlives the request, bounded by r.timeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if _, err := r.queue.EnqueueContext(ctx, task); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return
		}
		r.pausedUntil.Store(now.Add(r.backoff).UnixNano())
		r.logger.Warn("audit enqueue, pausing", slog.String("event_id", ev.ID.String()), slog.Duration("backoff", r.backoff), slog.Any("error", err))
	}
}

var _ rbac.DenialRecorder = (*Recorder)(nil)
