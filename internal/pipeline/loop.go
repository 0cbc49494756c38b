package pipeline

import (
	"context"
	"log/slog"

	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/llm"
	"github.com/seongmin-dev/welfare-report/internal/policy"
)

// MaxRetries bounds the self-correction rounds after the initial reasoning
// call, so the loop issues at most MaxRetries+1 calls.
const MaxRetries = 2

// ValidationLoop re-invokes the reasoning engine while excluding services
// the policy check has flagged, carrying (excluded, retryCount) as plain
// loop state.
type ValidationLoop struct {
	Engine llm.Generator
	Log    *slog.Logger
}

// Run returns a draft whose services always pass the policy check: either a
// clean round, or, once retries are exhausted, the validated remainder of
// the last round. The raw flagged output is never returned. The second
// return value is the number of reasoning calls issued.
func (l *ValidationLoop) Run(ctx context.Context, uctx entity.UserContext, candidates []entity.ServiceCatalogEntry) (llm.ReportDraft, int, error) {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}

	excluded := map[string]struct{}{}
	var lastInterim llm.ReportDraft
	calls := 0

	for retryCount := 0; ; retryCount++ {
		round := withoutExcluded(candidates, excluded)

		draft, _, err := l.Engine.Generate(ctx, uctx, round)
		calls++
		if err != nil {
			return llm.ReportDraft{}, calls, err
		}

		validation := policy.ValidateAll(draft.Services)
		if validation.IsValid {
			log.Info("loop.valid", "round", retryCount, "services", len(draft.Services))
			return draft, calls, nil
		}

		for _, svc := range validation.InvalidServices {
			excluded[svc.Name] = struct{}{}
		}
		lastInterim = draft
		lastInterim.Services = validation.ValidServices

		log.Warn("loop.flagged",
			"round", retryCount,
			"flagged", len(validation.InvalidServices),
			"remaining_valid", len(validation.ValidServices),
			"excluded_total", len(excluded),
		)

		if retryCount >= MaxRetries {
			log.Warn("loop.exhausted", "calls", calls, "services", len(lastInterim.Services))
			return lastInterim, calls, nil
		}
	}
}

// withoutExcluded filters candidates by name against the exclusion set.
func withoutExcluded(candidates []entity.ServiceCatalogEntry, excluded map[string]struct{}) []entity.ServiceCatalogEntry {
	if len(excluded) == 0 {
		return candidates
	}
	out := make([]entity.ServiceCatalogEntry, 0, len(candidates))
	for _, c := range candidates {
		if _, skip := excluded[c.Name]; skip {
			continue
		}
		out = append(out, c)
	}
	return out
}
