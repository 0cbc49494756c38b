package entity

import (
	"time"

	"github.com/seongmin-dev/welfare-report/constants"
)

// Task tracks one asynchronous report-generation request for one user.
type Task struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	Status      constants.TaskStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	QueuedAt    *time.Time           `json:"queued_at,omitempty"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	FailedAt    *time.Time           `json:"failed_at,omitempty"`
	Error       *string              `json:"error,omitempty"`
	Result      *TaskResult          `json:"result,omitempty"`
}

// TaskResult is the summary recorded when a task completes.
type TaskResult struct {
	Success    bool  `json:"success"`
	LatencyMs  int64 `json:"latency_ms"`
	IsFallback bool  `json:"is_fallback"`
}

// WorkPayload is the work item carried through the queue for one task.
type WorkPayload struct {
	TaskID      string    `json:"task_id"`
	UserID      string    `json:"user_id"`
	RequestedAt time.Time `json:"requested_at"`
}
