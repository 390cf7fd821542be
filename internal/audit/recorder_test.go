package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/jobs"
)

type stubEnqueuer struct {
	calls   int
	tasks   []*asynq.Task
	ctxErr  error
	failure error
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.calls++
	s.ctxErr = ctx.Err()
	if s.failure != nil {
		return nil, s.failure
	}
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{Queue: jobs.QueueAudit, Type: task.Type()}, nil
}

func TestRecorderEnqueuesDenial(t *testing.T) {
	queue := &stubEnqueuer{}
	rec := NewRecorder(queue, nil)
	fixed := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return fixed }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.RecordDenial(ctx, rbac.Denial{Component: "checker", Outcome: "forbidden", Method: "DELETE", Path: "/api/users/9", PrincipalID: "3", Role: rbac.RoleEditor, Permission: "manage:users"})

	require.Len(t, queue.tasks, 1)
	assert.NoError(t, queue.ctxErr, "enqueue must not inherit the request cancellation")
	assert.Equal(t, TaskAccessDenied, queue.tasks[0].Type())

	ev, err := DecodeAccessDenied(queue.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "checker", ev.Component)
	assert.Equal(t, "/api/users/9", ev.Path)
	assert.Equal(t, rbac.RoleEditor, ev.Role)
	assert.Equal(t, fixed, ev.At)
}

func TestRecorderSwallowsQueueErrors(t *testing.T) {
	rec := NewRecorder(&stubEnqueuer{failure: errors.New("redis down")}, nil)
	assert.NotPanics(t, func() {
		rec.RecordDenial(context.Background(), rbac.Denial{Component: "guard", Outcome: "no_principal", Path: "/admin"})
	})
}

func TestRecorderPausesAfterQueueFailure(t *testing.T) {
	queue := &stubEnqueuer{failure: errors.New("redis down")}
	rec := NewRecorder(queue, nil)
	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	rec.now = func() time.Time { return clock }
	denial := rbac.Denial{Component: "guard", Outcome: "insufficient_permission", Path: "/admin/users"}

	rec.RecordDenial(context.Background(), denial)
	rec.RecordDenial(context.Background(), denial)
	assert.Equal(t, 1, queue.calls, "second denial inside the backoff window must not touch the queue")

	queue.failure = nil
	clock = clock.Add(enqueueBackoff)
	rec.RecordDenial(context.Background(), denial)
	assert.Equal(t, 2, queue.calls)
	assert.Len(t, queue.tasks, 1)
}

func TestRecorderTimeoutStaysShort(t *testing.T) {
	rec := NewRecorder(&stubEnqueuer{}, nil)
	assert.LessOrEqual(t, rec.timeout, 250*time.Millisecond)
}

func TestNilRecorderIsNoop(t *testing.T) {
	var rec *Recorder
	assert.NotPanics(t, func() { rec.RecordDenial(context.Background(), rbac.Denial{}) })
}

func TestDecodeRejectsEventWithoutID(t *testing.T) {
	_, err := DecodeAccessDenied(asynq.NewTask(TaskAccessDenied, []byte(`{"component":"guard"}`)))
	assert.Error(t, err)
	_, err = DecodeAccessDenied(asynq.NewTask(TaskAccessDenied, []byte(`not json`)))
	assert.Error(t, err)
}

func TestNewAccessDeniedTaskRequiresID(t *testing.T) {
	_, err := NewAccessDeniedTask(AccessEvent{})
	assert.Error(t, err)
}
