package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// WorkItem is one queued unit of work. The queue delivers at least once:
// a claimed item whose handler never acks is requeued after StuckAfter.
type WorkItem struct {
	ID          int64
	Payload     entity.WorkPayload
	Status      constants.WorkItemStatus
	Attempts    int
	MaxAttempts int
	RunAt       time.Time
}

// Enqueuer is the dispatcher-facing side of the queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload entity.WorkPayload) error
}

// Consumer is the worker-facing side of the queue.
type Consumer interface {
	// Claim atomically takes one due item, or returns nil if none is due.
	Claim(ctx context.Context, workerID string) (*WorkItem, error)
	MarkDone(ctx context.Context, id int64) error
	MarkDead(ctx context.Context, id int64, errMsg string) error
	RetryLater(ctx context.Context, id int64, attempts int, runAt time.Time, errMsg string) error
}

type Config struct {
	MaxAttempts int
	StuckAfter  time.Duration
}

// PostgresQueue implements Enqueuer and Consumer over a work_queue table.
type PostgresQueue struct {
	pool *pgxpool.Pool
	cfg  Config
	log  *slog.Logger
}

func NewPostgresQueue(pool *pgxpool.Pool, cfg Config, log *slog.Logger) *PostgresQueue {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.StuckAfter <= 0 {
		cfg.StuckAfter = 5 * time.Minute
	}
	return &PostgresQueue{pool: pool, cfg: cfg, log: log}
}

func (q *PostgresQueue) Enqueue(ctx context.Context, payload entity.WorkPayload) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = q.pool.Exec(ctx, `
insert into work_queue (payload, run_at, status, max_attempts)
values ($1, now(), $2, $3)`, b, string(constants.WorkItemPending), q.cfg.MaxAttempts)
	if err != nil {
		q.log.Error("queue.enqueue.failed", "task_id", payload.TaskID, "error", err)
		return err
	}
	q.log.Info("queue.enqueued", "task_id", payload.TaskID, "user_id", payload.UserID)
	return nil
}

// Claim takes one due item using FOR UPDATE SKIP LOCKED so concurrent workers
// never double-claim. Items stuck in RUNNING beyond StuckAfter are requeued
// first, which is what makes delivery at-least-once.
func (q *PostgresQueue) Claim(ctx context.Context, workerID string) (*WorkItem, error) {
	var (
		item    WorkItem
		status  string
		payload []byte
	)
	err := pgx.BeginFunc(ctx, q.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
update work_queue
set status = 'PENDING', locked_by = null, locked_at = null, updated_at = now()
where status = 'RUNNING' and locked_at is not null and locked_at < now() - $1::interval`,
			q.cfg.StuckAfter.String())
		if err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `
with cte as (
  select id
  from work_queue
  where status = 'PENDING' and run_at <= now()
  order by run_at asc
  for update skip locked
  limit 1
)
update work_queue
set status = 'RUNNING', locked_by = $1, locked_at = now(), updated_at = now()
where id in (select id from cte)
returning id, payload, status, attempts, max_attempts, run_at`, workerID)

		err = row.Scan(&item.ID, &payload, &status, &item.Attempts, &item.MaxAttempts, &item.RunAt)
		if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &item.Payload); err != nil {
		return nil, err
	}
	item.Status = constants.WorkItemStatus(status)
	return &item, nil
}

func (q *PostgresQueue) MarkDone(ctx context.Context, id int64) error {
	_, err := q.pool.Exec(ctx, `
update work_queue set status = 'DONE', updated_at = now() where id = $1`, id)
	return err
}

func (q *PostgresQueue) MarkDead(ctx context.Context, id int64, errMsg string) error {
	_, err := q.pool.Exec(ctx, `
update work_queue set status = 'DEAD', last_error = $2, updated_at = now() where id = $1`, id, errMsg)
	return err
}

func (q *PostgresQueue) RetryLater(ctx context.Context, id int64, attempts int, runAt time.Time, errMsg string) error {
	_, err := q.pool.Exec(ctx, `
update work_queue
set status = 'PENDING',
    attempts = $2,
    run_at = $3,
    locked_by = null,
    locked_at = null,
    last_error = $4,
    updated_at = now()
where id = $1`, id, attempts, runAt, errMsg)
	return err
}
