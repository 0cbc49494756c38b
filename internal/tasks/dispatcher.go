package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/common"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/queue"
	"github.com/seongmin-dev/welfare-report/internal/repository"
)

// DedupWindow is the trailing interval during which a second submission for
// the same user returns the existing active task instead of creating one.
const DedupWindow = 5 * time.Minute

// SubmitResult is what a submission returns: the task (new or existing) and
// whether it was deduplicated.
type SubmitResult struct {
	Task      *entity.Task
	Duplicate bool
}

// Dispatcher owns task creation. The dedup lookup and the insert are not
// atomic: two submissions for the same user landing in the same instant can
// both create tasks. Known limitation, matches the deployed behavior.
type Dispatcher struct {
	Tasks  repository.TaskRepository
	Queue  queue.Enqueuer
	Window time.Duration
	Log    *slog.Logger
	Now    func() time.Time
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dispatcher) window() time.Duration {
	if d.Window > 0 {
		return d.Window
	}
	return DedupWindow
}

// Submit creates and enqueues a report-generation task for the user, or
// returns the active task created within the dedup window.
func (d *Dispatcher) Submit(ctx context.Context, userID string) (SubmitResult, error) {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	now := d.now()

	existing, err := d.Tasks.FindActiveForUser(ctx, userID, now.Add(-d.window()))
	if err != nil {
		return SubmitResult{}, common.WrapError(err, "dedup lookup")
	}
	if existing != nil {
		log.Info("dispatcher.duplicate", "user_id", userID, "task_id", existing.ID, "status", string(existing.Status))
		return SubmitResult{Task: existing, Duplicate: true}, nil
	}

	task := &entity.Task{
		ID:        newTaskID(userID, now),
		UserID:    userID,
		Status:    constants.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := d.Tasks.Create(ctx, task); err != nil {
		return SubmitResult{}, common.WrapError(err, "create task")
	}

	payload := entity.WorkPayload{TaskID: task.ID, UserID: userID, RequestedAt: now}
	if err := d.Queue.Enqueue(ctx, payload); err != nil {
		// Enqueue failure is fatal for this submission: the task goes
		// straight to failed and the error surfaces to the caller.
		if markErr := d.Tasks.MarkFailed(ctx, task.ID, err.Error()); markErr != nil {
			log.Error("dispatcher.mark_failed_error", "task_id", task.ID, "error", markErr)
		}
		return SubmitResult{}, fmt.Errorf("enqueue task %s: %v: %w", task.ID, err, common.ErrEnqueue)
	}
	if err := d.Tasks.MarkQueued(ctx, task.ID); err != nil {
		return SubmitResult{}, common.WrapError(err, "mark queued")
	}
	task.Status = constants.TaskStatusQueued
	queuedAt := d.now()
	task.QueuedAt = &queuedAt

	log.Info("dispatcher.submitted", "user_id", userID, "task_id", task.ID)
	return SubmitResult{Task: task}, nil
}

// GetStatus is a pure read projection; a missing task returns nil, not an
// error.
func (d *Dispatcher) GetStatus(ctx context.Context, taskID string) (*entity.Task, error) {
	return d.Tasks.GetByID(ctx, taskID)
}

// GetLatestForUser returns the user's most recent task regardless of status.
func (d *Dispatcher) GetLatestForUser(ctx context.Context, userID string) (*entity.Task, error) {
	return d.Tasks.LatestForUser(ctx, userID)
}

// newTaskID composites the user and submission time so log lines and DB rows
// correlate by eye; the uuid suffix keeps same-millisecond submissions unique.
func newTaskID(userID string, now time.Time) string {
	return fmt.Sprintf("rpt-%s-%d-%s", userID, now.UnixMilli(), uuid.New().String()[:8])
}
