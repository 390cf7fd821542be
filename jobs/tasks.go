package jobs

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueAudit carries access audit events and their retention job.
	QueueAudit = "audit"
)

// Queues lists every queue the worker consumes with its priority weight.
func Queues() map[string]int {
	return map[string]int{
		QueueAudit:   3,
		QueueDefault: 1,
	}
}
