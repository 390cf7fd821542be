package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hibiken/asynq"
	"github.com/spf13/pflag"

	"github.com/harapan-foundation/harapan/internal/audit"
	"github.com/harapan-foundation/harapan/jobs"
)

// Enqueuer submits tasks.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueInspector reads queue state.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client        Enqueuer
	inspector     QueueInspector
	retentionDays int
	closers       []io.Closer
}

// NewJobsCLI initialises the CLI helpers using the provided Redis address.
func NewJobsCLI(redisAddr string, retentionDays int) *JobsCLI {
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: redisAddr})
	return &JobsCLI{client: client, inspector: inspector, retentionDays: retentionDays, closers: []io.Closer{inspector, client}}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	for _, closer := range c.closers {
		if closeErr := closer.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Command runs "jobs prune [--days N]" or "jobs stats".
func (c *JobsCLI) Command(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, "usage: jobs prune [--days N] | jobs stats")
		return 2
	}
	switch args[0] {
	case "prune":
		fs := pflag.NewFlagSet("jobs prune", pflag.ContinueOnError)
		fs.SetOutput(stderr)
		days := fs.Int("days", c.retentionDays, "retention in days")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		info, err := c.TriggerPrune(ctx, *days)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "jobs prune: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintf(stdout, "enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		for _, queue := range []string{jobs.QueueAudit, jobs.QueueDefault} {
			stats, err := c.InspectQueue(queue)
			if err != nil {
				_, _ = fmt.Fprintf(stderr, "jobs stats: %v\n", err)
				return 1
			}
			_, _ = fmt.Fprintf(stdout, "%s pending=%d active=%d scheduled=%d retry=%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		}
		return 0
	default:
		_, _ = fmt.Fprintf(stderr, "jobs: unknown subcommand %q\n", args[0])
		return 2
	}
}

// TriggerPrune enqueues an audit prune run.
func (c *JobsCLI) TriggerPrune(ctx context.Context, days int) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	if days <= 0 {
		return nil, fmt.Errorf("jobs cli: retention must be positive, got %d", days)
	}
	task, err := audit.NewPruneTask(days)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
}

// InspectQueue reports the queue metrics. A queue that never received a task
// reports zeros.
func (c *JobsCLI) InspectQueue(queue string) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	stats := QueueStats{Queue: queue}
	info, err := c.inspector.GetQueueInfo(queue)
	if errors.Is(err, asynq.ErrQueueNotFound) {
		return stats, nil
	}
	if err != nil {
		return QueueStats{}, err
	}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
	}
	return stats, nil
}
