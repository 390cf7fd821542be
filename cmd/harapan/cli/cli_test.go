package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harapan-foundation/harapan/internal/audit"
	"github.com/harapan-foundation/harapan/internal/rbac"
	"github.com/harapan-foundation/harapan/jobs"
)

func TestLintCommandDefaultRules(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := NewRulesCLI(rbac.DefaultMatrix(), rbac.DefaultRules()).LintCommand([]string{"--json", "--strict"}, "/admin/dashboard", &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var summary LintSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.True(t, summary.OK)
	assert.Len(t, summary.Rules, len(rbac.DefaultRules()))
	assert.Empty(t, summary.Warnings)
}

func TestLintCommandStrictFails(t *testing.T) {
	rules := []rbac.Rule{
		rbac.AreaRule("/admin"),
		rbac.PermissionRule("/admin/dashboard", rbac.PermManageSettings),
	}
	var stdout, stderr bytes.Buffer
	code := NewRulesCLI(rbac.DefaultMatrix(), rules).LintCommand([]string{"--strict"}, "/admin/dashboard", &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "fallback_loop")
}

func TestLintCommandBadFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := NewRulesCLI(rbac.DefaultMatrix(), rbac.DefaultRules()).LintCommand([]string{"--nope"}, "/admin/dashboard", &stdout, &stderr)
	assert.Equal(t, 2, code)
}

func TestLintCommandShorthandAndDashboardOverride(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := NewRulesCLI(rbac.DefaultMatrix(), rbac.DefaultRules()).LintCommand([]string{"-j", "--dashboard=/admin/settings"}, "/admin/dashboard", &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var summary LintSummary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summary))
	assert.False(t, summary.OK)
	assert.NotEmpty(t, summary.Warnings)
}

type stubQueue struct {
	tasks []*asynq.Task
	info  map[string]*asynq.QueueInfo
}

func (s *stubQueue) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "t-1", Type: task.Type(), Queue: jobs.QueueAudit}, nil
}

func (s *stubQueue) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s.info[queue]
	if !ok {
		return nil, asynq.ErrQueueNotFound
	}
	return info, nil
}

func TestJobsPrune(t *testing.T) {
	queue := &stubQueue{}
	c := &JobsCLI{client: queue, inspector: queue, retentionDays: 180}
	var stdout, stderr bytes.Buffer

	code := c.Command(context.Background(), []string{"prune", "--days", "30"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, queue.tasks, 1)
	assert.Equal(t, audit.TaskPrune, queue.tasks[0].Type())

	var payload audit.PrunePayload
	require.NoError(t, json.Unmarshal(queue.tasks[0].Payload(), &payload))
	assert.Equal(t, 30, payload.RetentionDays)
	assert.Contains(t, stdout.String(), "audit:prune")

	code = c.Command(context.Background(), []string{"prune", "--days", "0"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
}

func TestJobsStats(t *testing.T) {
	queue := &stubQueue{info: map[string]*asynq.QueueInfo{
		jobs.QueueAudit: {Queue: jobs.QueueAudit, Pending: 4, Retry: 1},
	}}
	c := &JobsCLI{client: queue, inspector: queue}
	var stdout, stderr bytes.Buffer

	code := c.Command(context.Background(), []string{"stats"}, &stdout, &stderr)
	require.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "audit pending=4 active=0 scheduled=0 retry=1")
	assert.Contains(t, stdout.String(), "default pending=0")
}

func TestJobsUnknownSubcommand(t *testing.T) {
	c := &JobsCLI{}
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, c.Command(context.Background(), nil, &stdout, &stderr))
	assert.Equal(t, 2, c.Command(context.Background(), []string{"retry-all"}, &stdout, &stderr))
}

func TestInspectQueueWithoutInspector(t *testing.T) {
	var c *JobsCLI
	_, err := c.InspectQueue(jobs.QueueAudit)
	assert.Error(t, err)
	_, err = (&JobsCLI{}).TriggerPrune(context.Background(), 10)
	assert.Error(t, err)
}
