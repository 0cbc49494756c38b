package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/llm"
	"github.com/seongmin-dev/welfare-report/internal/repository"
)

// ContextBuilder assembles the per-run user context.
type ContextBuilder interface {
	Build(ctx context.Context, userID string) (entity.UserContext, error)
}

// CatalogProvider exposes the loaded service catalog.
type CatalogProvider interface {
	Entries() []entity.ServiceCatalogEntry
}

// Notifier delivers best-effort pushes. Implementations swallow their own
// failures; the processor never checks them.
type Notifier interface {
	NotifyCompletion(ctx context.Context, userID string)
	NotifyFailure(ctx context.Context, userID string, errMsg string)
	NotifyGuardians(ctx context.Context, userID string, riskType constants.RiskType)
}

// Processor is the worker: it consumes one queued payload and drives
// context building, candidate selection, the validation loop, persistence
// and notification. Reasoning failures degrade to the fallback report;
// context-building and persistence failures fail the task and propagate so
// the queue can redeliver.
type Processor struct {
	Tasks    repository.TaskRepository
	Reports  repository.ReportRepository
	Builder  ContextBuilder
	Catalog  CatalogProvider
	Loop     *ValidationLoop
	Notifier Notifier
	Log      *slog.Logger
	Now      func() time.Time
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// Handle implements queue.Handler. Redelivery of the same payload is safe:
// each run fully overwrites the persisted report.
func (p *Processor) Handle(ctx context.Context, payload entity.WorkPayload) error {
	log := p.Log
	if log == nil {
		log = slog.Default()
	}
	start := p.now()
	log.Info("worker.run.start", "task_id", payload.TaskID, "user_id", payload.UserID)

	if err := p.Tasks.MarkProcessing(ctx, payload.TaskID); err != nil {
		return err
	}

	uctx, err := p.Builder.Build(ctx, payload.UserID)
	if err != nil {
		p.failTask(ctx, payload, err)
		return err
	}

	candidates := SelectCandidates(uctx, p.Catalog.Entries())

	var (
		report         entity.Report
		reasoningCalls int
	)
	if len(candidates) == 0 {
		// Reasoning is never invoked for an empty candidate set.
		log.Info("worker.run.no_candidates", "task_id", payload.TaskID)
		report = BuildFallback(uctx, nil)
	} else {
		draft, calls, loopErr := p.Loop.Run(ctx, uctx, candidates)
		reasoningCalls = calls
		if loopErr != nil {
			// Upstream reasoning failure degrades gracefully; the task
			// still completes with a fallback report.
			log.Warn("worker.run.reasoning_degraded", "task_id", payload.TaskID, "error", loopErr)
			report = BuildFallback(uctx, candidates)
		} else {
			report = p.reportFromDraft(uctx, draft, candidates)
		}
	}

	report.Version = p.nextVersion(ctx, payload.UserID)
	report.GeneratedAt = p.now()
	latency := p.now().Sub(start).Milliseconds()
	report.PerformanceMetrics = &entity.PerformanceMetrics{
		LatencyMs:      latency,
		ReasoningCalls: reasoningCalls,
	}

	if err := p.Reports.Upsert(ctx, &report); err != nil {
		p.failTask(ctx, payload, err)
		return err
	}

	result := entity.TaskResult{Success: true, LatencyMs: latency, IsFallback: report.IsFallback}
	if err := p.Tasks.MarkCompleted(ctx, payload.TaskID, result); err != nil {
		return err
	}

	p.Notifier.NotifyCompletion(ctx, payload.UserID)
	if report.Metadata.Trend == constants.TrendDecrease {
		// A shrinking activity pattern is the one signal worth waking a
		// guardian for; the notifier applies its own opt-in gate.
		p.Notifier.NotifyGuardians(ctx, payload.UserID, constants.RiskActivity)
	}

	log.Info("worker.run.ok",
		"task_id", payload.TaskID,
		"is_fallback", report.IsFallback,
		"services", len(report.Services),
		"reasoning_calls", reasoningCalls,
		"elapsed_ms", latency,
	)
	return nil
}

// reportFromDraft cross-references each recommended name against the run's
// candidate list to recover its link; names with no match violate the
// candidate contract and are dropped before persistence.
func (p *Processor) reportFromDraft(uctx entity.UserContext, draft llm.ReportDraft, candidates []entity.ServiceCatalogEntry) entity.Report {
	byName := make(map[string]entity.ServiceCatalogEntry, len(candidates))
	for _, c := range candidates {
		byName[c.Name] = c
	}

	services := make([]entity.Recommendation, 0, len(draft.Services))
	for _, svc := range draft.Services {
		match, ok := byName[svc.Name]
		if !ok {
			if p.Log != nil {
				p.Log.Warn("worker.postprocess.dropped_unknown_service", "name", svc.Name)
			}
			continue
		}
		svc.Link = match.Link
		services = append(services, svc)
	}

	return entity.Report{
		UserID:           uctx.UserID,
		Summary:          draft.Summary,
		Risk:             draft.Risk,
		Advice:           draft.Advice,
		Services:         services,
		IsFallback:       false,
		Metadata:         uctx.Stats,
		GenerationMethod: entity.GenerationMethodLLM,
	}
}

func (p *Processor) failTask(ctx context.Context, payload entity.WorkPayload, cause error) {
	if err := p.Tasks.MarkFailed(ctx, payload.TaskID, cause.Error()); err != nil {
		if p.Log != nil {
			p.Log.Error("worker.fail_task.mark_failed_error", "task_id", payload.TaskID, "error", err)
		}
	}
	p.Notifier.NotifyFailure(ctx, payload.UserID, cause.Error())
}

func (p *Processor) nextVersion(ctx context.Context, userID string) int {
	prev, err := p.Reports.GetByUserID(ctx, userID)
	if err != nil || prev == nil {
		return 1
	}
	return prev.Version + 1
}
