package queue

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// Handler processes one claimed work item. A returned error requeues the
// item with backoff until its attempts are exhausted.
type Handler interface {
	Handle(ctx context.Context, payload entity.WorkPayload) error
}

// Poller tickers over Claim and dispatches claimed items to a Handler.
type Poller struct {
	ID       string
	Consumer Consumer
	Handler  Handler
	Interval time.Duration
	Log      *slog.Logger
}

func (p *Poller) Run(ctx context.Context) {
	if p.Log == nil {
		p.Log = slog.Default()
	}
	interval := p.Interval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Log.Info("poller.started", "worker_id", p.ID, "interval_ms", interval.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			p.Log.Info("poller.stopped", "worker_id", p.ID)
			return
		case <-ticker.C:
			item, err := p.Consumer.Claim(ctx, p.ID)
			if err != nil {
				p.Log.Error("poller.claim.failed", "worker_id", p.ID, "error", err)
				continue
			}
			if item == nil {
				continue
			}
			p.handle(ctx, item)
		}
	}
}

func (p *Poller) handle(ctx context.Context, item *WorkItem) {
	start := time.Now()
	err := p.Handler.Handle(ctx, item.Payload)
	if err == nil {
		if ackErr := p.Consumer.MarkDone(ctx, item.ID); ackErr != nil {
			p.Log.Error("poller.ack.failed", "item_id", item.ID, "error", ackErr)
		}
		p.Log.Info("poller.item.done",
			"item_id", item.ID,
			"task_id", item.Payload.TaskID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	attempts := item.Attempts + 1
	if attempts >= item.MaxAttempts {
		p.Log.Warn("poller.item.dead",
			"item_id", item.ID, "task_id", item.Payload.TaskID,
			"attempts", attempts, "error", err,
		)
		if deadErr := p.Consumer.MarkDead(ctx, item.ID, err.Error()); deadErr != nil {
			p.Log.Error("poller.mark_dead.failed", "item_id", item.ID, "error", deadErr)
		}
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)
	p.Log.Warn("poller.item.retry",
		"item_id", item.ID, "task_id", item.Payload.TaskID,
		"attempts", attempts, "next_run", next, "error", err,
	)
	if retryErr := p.Consumer.RetryLater(ctx, item.ID, attempts, next, err.Error()); retryErr != nil {
		p.Log.Error("poller.retry_later.failed", "item_id", item.ID, "error", retryErr)
	}
}
