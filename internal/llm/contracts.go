package llm

import (
	"context"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// ContextView is the minimized projection of a user context sent to the
// reasoning service. Only classification and sensor-derived stats go out;
// district and identifiers stay local.
type ContextView struct {
	RecipientType string               `json:"recipient_type"`
	HasSensor     bool                 `json:"has_sensor"`
	Stats         entity.MobilityStats `json:"stats"`
}

// ServiceRef is the minimized projection of one candidate.
type ServiceRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Ministry string `json:"ministry"`
}

// ReportDraft is the normalized shape we want from the reasoning service:
// the two category arrays of the wire format merged into one tagged list.
type ReportDraft struct {
	Summary  string                  `json:"summary"`
	Risk     string                  `json:"risk"`
	Advice   string                  `json:"advice"`
	Services []entity.Recommendation `json:"services"`
}

// Generator is the interface the validation loop depends on.
type Generator interface {
	Generate(ctx context.Context, uctx entity.UserContext, candidates []entity.ServiceCatalogEntry) (ReportDraft, []byte /*rawJSON*/, error)
}

// ProjectContext builds the outbound context projection.
func ProjectContext(uctx entity.UserContext) ContextView {
	return ContextView{
		RecipientType: string(uctx.RecipientType),
		HasSensor:     uctx.HasSensor,
		Stats:         uctx.Stats,
	}
}

// ProjectCandidates builds the outbound candidate projections.
func ProjectCandidates(candidates []entity.ServiceCatalogEntry) []ServiceRef {
	refs := make([]ServiceRef, 0, len(candidates))
	for _, c := range candidates {
		refs = append(refs, ServiceRef{
			ID:       c.ID,
			Name:     c.Name,
			Summary:  c.Summary,
			Ministry: c.Ministry,
		})
	}
	return refs
}
