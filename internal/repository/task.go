package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// TaskRepository owns rows in report_task. Only the dispatcher creates tasks
// and only the worker transitions them.
type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	// FindActiveForUser returns the newest non-terminal task created for the
	// user at or after since, or nil if there is none.
	FindActiveForUser(ctx context.Context, userID string, since time.Time) (*entity.Task, error)
	GetByID(ctx context.Context, taskID string) (*entity.Task, error)
	LatestForUser(ctx context.Context, userID string) (*entity.Task, error)
	MarkQueued(ctx context.Context, taskID string) error
	MarkProcessing(ctx context.Context, taskID string) error
	MarkCompleted(ctx context.Context, taskID string, result entity.TaskResult) error
	MarkFailed(ctx context.Context, taskID string, message string) error
}

type taskRepo struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewTaskRepository(pool *pgxpool.Pool, log *slog.Logger) TaskRepository {
	if log == nil {
		log = slog.Default()
	}
	return &taskRepo{pool: pool, log: log}
}

const taskColumns = `id, user_id, status, created_at, updated_at, queued_at, started_at, completed_at, failed_at, error_message, result`

func (r *taskRepo) Create(ctx context.Context, task *entity.Task) error {
	_, err := r.pool.Exec(ctx, `
insert into report_task (id, user_id, status, created_at, updated_at)
values ($1, $2, $3, $4, $5)`,
		task.ID, task.UserID, string(task.Status), task.CreatedAt, task.UpdatedAt)
	if err != nil {
		r.log.Error("task.create.failed", "task_id", task.ID, "user_id", task.UserID, "error", err)
		return err
	}
	r.log.Info("task.created", "task_id", task.ID, "user_id", task.UserID)
	return nil
}

func (r *taskRepo) FindActiveForUser(ctx context.Context, userID string, since time.Time) (*entity.Task, error) {
	row := r.pool.QueryRow(ctx, `
select `+taskColumns+`
from report_task
where user_id = $1
  and status in ('pending', 'queued', 'processing')
  and created_at >= $2
order by created_at desc
limit 1`, userID, since)
	return scanTask(row)
}

func (r *taskRepo) GetByID(ctx context.Context, taskID string) (*entity.Task, error) {
	row := r.pool.QueryRow(ctx, `
select `+taskColumns+`
from report_task
where id = $1`, taskID)
	return scanTask(row)
}

func (r *taskRepo) LatestForUser(ctx context.Context, userID string) (*entity.Task, error) {
	row := r.pool.QueryRow(ctx, `
select `+taskColumns+`
from report_task
where user_id = $1
order by created_at desc
limit 1`, userID)
	return scanTask(row)
}

func (r *taskRepo) MarkQueued(ctx context.Context, taskID string) error {
	_, err := r.pool.Exec(ctx, `
update report_task
set status = $2, queued_at = now(), updated_at = now()
where id = $1`, taskID, string(constants.TaskStatusQueued))
	if err != nil {
		r.log.Error("task.mark_queued.failed", "task_id", taskID, "error", err)
	}
	return err
}

func (r *taskRepo) MarkProcessing(ctx context.Context, taskID string) error {
	_, err := r.pool.Exec(ctx, `
update report_task
set status = $2, started_at = now(), updated_at = now()
where id = $1`, taskID, string(constants.TaskStatusProcessing))
	if err != nil {
		r.log.Error("task.mark_processing.failed", "task_id", taskID, "error", err)
	}
	return err
}

func (r *taskRepo) MarkCompleted(ctx context.Context, taskID string, result entity.TaskResult) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
update report_task
set status = $2, completed_at = now(), updated_at = now(), result = $3
where id = $1`, taskID, string(constants.TaskStatusCompleted), b)
	if err != nil {
		r.log.Error("task.mark_completed.failed", "task_id", taskID, "error", err)
		return err
	}
	r.log.Info("task.completed", "task_id", taskID, "is_fallback", result.IsFallback, "latency_ms", result.LatencyMs)
	return nil
}

func (r *taskRepo) MarkFailed(ctx context.Context, taskID string, message string) error {
	_, err := r.pool.Exec(ctx, `
update report_task
set status = $2, failed_at = now(), updated_at = now(), error_message = $3
where id = $1`, taskID, string(constants.TaskStatusFailed), message)
	if err != nil {
		r.log.Error("task.mark_failed.failed", "task_id", taskID, "error", err)
		return err
	}
	r.log.Warn("task.failed", "task_id", taskID, "error", message)
	return nil
}

func scanTask(row pgx.Row) (*entity.Task, error) {
	var (
		t      entity.Task
		status string
		result []byte
	)
	err := row.Scan(&t.ID, &t.UserID, &status, &t.CreatedAt, &t.UpdatedAt,
		&t.QueuedAt, &t.StartedAt, &t.CompletedAt, &t.FailedAt, &t.Error, &result)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t.Status = constants.TaskStatus(status)
	if len(result) > 0 {
		var res entity.TaskResult
		if err := json.Unmarshal(result, &res); err == nil {
			t.Result = &res
		}
	}
	return &t, nil
}
