package constants

// TaskStatus is the canonical status for rows in report_task.
type TaskStatus string

// Stable values (store these exact strings in DB).
const (
	TaskStatusPending    TaskStatus = "pending"    // created, not yet enqueued
	TaskStatusQueued     TaskStatus = "queued"     // enqueued to the work queue
	TaskStatusProcessing TaskStatus = "processing" // claimed by a worker
	TaskStatusCompleted  TaskStatus = "completed"  // terminal success
	TaskStatusFailed     TaskStatus = "failed"     // terminal failure
)

// IsTerminal reports whether a task in this status will never transition again
// (short of queue-level redelivery re-entering processing).
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// IsActive reports whether a task in this status blocks a new submission for
// the same user inside the dedup window.
func (s TaskStatus) IsActive() bool {
	return s == TaskStatusPending || s == TaskStatusQueued || s == TaskStatusProcessing
}

// WorkItemStatus is the canonical status for rows in work_queue.
type WorkItemStatus string

const (
	WorkItemPending WorkItemStatus = "PENDING" // waiting to be claimed
	WorkItemRunning WorkItemStatus = "RUNNING" // claimed by a worker
	WorkItemDone    WorkItemStatus = "DONE"    // acked
	WorkItemDead    WorkItemStatus = "DEAD"    // retries exhausted
)
