package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/common"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/llm"
)

// wireReport is the raw response shape before the two category arrays are
// merged into one tagged list.
type wireReport struct {
	Summary          string        `json:"summary"`
	Risk             string        `json:"risk"`
	Advice           string        `json:"advice"`
	MobilityServices []wireService `json:"mobility_services"`
	WelfareServices  []wireService `json:"welfare_services"`
}

type wireService struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Generate implements llm.Generator using text-only chat/completions.
func (c *Client) Generate(ctx context.Context, uctx entity.UserContext, candidates []entity.ServiceCatalogEntry) (llm.ReportDraft, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.generate.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"temp", c.cfg.Temperature,
		"recipient_type", string(uctx.RecipientType),
		"candidates", len(candidates),
	)

	schema := llm.BuildReportJSONSchema()
	sys := buildSystemPrompt(candidates)
	user := buildUserPrompt(uctx, candidates)

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": sys},
			{"role": "user", "content": user + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, _, httpErr := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.log)
	if httpErr != nil {
		c.log.Error("llm.generate.http_error",
			"req_id", rid, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReportDraft{}, raw, fmt.Errorf("reasoning call: %v: %w", httpErr, common.ErrUpstreamReasoning)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.generate.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReportDraft{}, raw, fmt.Errorf("decode openai response: %v: %w", err, common.ErrUpstreamReasoning)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.generate.no_choices", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.ReportDraft{}, raw, fmt.Errorf("no choices in openai response: %w", common.ErrUpstreamReasoning)
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		c.log.Error("llm.generate.empty_content", "req_id", rid,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.ReportDraft{}, raw, fmt.Errorf("empty reasoning content: %w", common.ErrUpstreamReasoning)
	}
	rawContent := []byte(content)

	if err := llm.ValidateJSONAgainstSchema(schema, rawContent); err != nil {
		c.log.Error("llm.generate.schema_validation_failed",
			"req_id", rid, "error", err, "content", content,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return llm.ReportDraft{}, rawContent, fmt.Errorf("schema validation failed: %v: %w", err, common.ErrUpstreamReasoning)
	}

	var wire wireReport
	if err := json.Unmarshal(rawContent, &wire); err != nil {
		return llm.ReportDraft{}, rawContent, fmt.Errorf("unmarshal report: %v: %w", err, common.ErrUpstreamReasoning)
	}
	if wire.Summary == "" || wire.Risk == "" || wire.Advice == "" {
		return llm.ReportDraft{}, rawContent, fmt.Errorf("missing summary/risk/advice: %w", common.ErrUpstreamReasoning)
	}

	draft := llm.ReportDraft{
		Summary:  wire.Summary,
		Risk:     wire.Risk,
		Advice:   wire.Advice,
		Services: mergeServices(wire),
	}
	c.log.Info("llm.generate.ok",
		"req_id", rid,
		"services", len(draft.Services),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return draft, rawContent, nil
}

// mergeServices flattens the two wire arrays into one category-tagged list.
func mergeServices(wire wireReport) []entity.Recommendation {
	out := make([]entity.Recommendation, 0, len(wire.MobilityServices)+len(wire.WelfareServices))
	for _, s := range wire.MobilityServices {
		out = append(out, entity.Recommendation{
			Name:     s.Name,
			Reason:   s.Reason,
			Category: constants.CategoryMobility,
		})
	}
	for _, s := range wire.WelfareServices {
		out = append(out, entity.Recommendation{
			Name:     s.Name,
			Reason:   s.Reason,
			Category: constants.CategoryWelfare,
		})
	}
	return out
}

func buildSystemPrompt(candidates []entity.ServiceCatalogEntry) string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}

	parts := []string{
		"You are a welfare/mobility advisor for powered mobility device users. Return ONLY JSON that matches the provided JSON Schema.",
		"Recommend exactly 3 services under 'mobility_services' and exactly 3 under 'welfare_services'.",
		"Every recommended name MUST be one of the supplied candidate names: " + strings.Join(names, ", ") + ".",
		"Each 'reason' must reference only the data actually supplied (recipient type, sensor presence, mileage stats, repair counts). Never invent age, income, household or any demographic attribute.",
		"Write summary, risk, advice and reasons in Korean.",
		"Do not add fields beyond the schema. Never output null.",
	}
	return strings.Join(parts, " ")
}

func buildUserPrompt(uctx entity.UserContext, candidates []entity.ServiceCatalogEntry) string {
	var b strings.Builder
	b.WriteString("User context:\n")
	b.WriteString(mustJSON(llm.ProjectContext(uctx)))
	b.WriteString("\n\nCandidate services:\n")
	b.WriteString(mustJSON(llm.ProjectCandidates(candidates)))
	return b.String()
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
