package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/llm"
	"github.com/seongmin-dev/welfare-report/internal/policy"
)

// scriptedGenerator returns one canned draft per call and records the
// candidate set each round received.
type scriptedGenerator struct {
	drafts []llm.ReportDraft
	err    error
	calls  int
	rounds [][]string
}

func (g *scriptedGenerator) Generate(_ context.Context, _ entity.UserContext, candidates []entity.ServiceCatalogEntry) (llm.ReportDraft, []byte, error) {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.Name)
	}
	g.rounds = append(g.rounds, names)

	if g.err != nil {
		g.calls++
		return llm.ReportDraft{}, nil, g.err
	}
	idx := g.calls
	if idx >= len(g.drafts) {
		idx = len(g.drafts) - 1
	}
	g.calls++
	return g.drafts[idx], []byte(`{}`), nil
}

func TestLoopCleanFirstRound(t *testing.T) {
	gen := &scriptedGenerator{drafts: []llm.ReportDraft{{
		Summary:  "요약",
		Risk:     "위험 없음",
		Services: []entity.Recommendation{{Name: "이동지원", Reason: "이동 패턴 기반"}},
	}}}
	loop := &ValidationLoop{Engine: gen}

	draft, calls, err := loop.Run(context.Background(), entity.UserContext{}, []entity.ServiceCatalogEntry{{Name: "이동지원"}})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Len(t, draft.Services, 1)
}

func TestLoopRetriesExcludeFlagged(t *testing.T) {
	flagged := llm.ReportDraft{Services: []entity.Recommendation{
		{Name: "이동지원", Reason: "이동 패턴 기반"},
		{Name: "유류세감면", Reason: "유류세 감면 혜택"},
	}}
	clean := llm.ReportDraft{Services: []entity.Recommendation{
		{Name: "이동지원", Reason: "이동 패턴 기반"},
	}}
	gen := &scriptedGenerator{drafts: []llm.ReportDraft{flagged, clean}}
	loop := &ValidationLoop{Engine: gen}

	candidates := []entity.ServiceCatalogEntry{{Name: "이동지원"}, {Name: "유류세감면"}}
	draft, calls, err := loop.Run(context.Background(), entity.UserContext{}, candidates)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, draft.Services, 1)
	assert.Equal(t, "이동지원", draft.Services[0].Name)

	// The flagged candidate is withheld from the retry round.
	require.Len(t, gen.rounds, 2)
	assert.Equal(t, []string{"이동지원", "유류세감면"}, gen.rounds[0])
	assert.Equal(t, []string{"이동지원"}, gen.rounds[1])
}

func TestLoopExhaustionReturnsValidatedRemainder(t *testing.T) {
	// Adversarial engine: every round proposes a denylisted service under a
	// fresh name, so no round is ever fully clean.
	adversarial := llm.ReportDraft{Services: []entity.Recommendation{
		{Name: "복지상담", Reason: "맞춤 상담"},
		{Name: "주유할인", Reason: "주유비 할인"},
	}}
	gen := &scriptedGenerator{drafts: []llm.ReportDraft{adversarial}}
	loop := &ValidationLoop{Engine: gen}

	draft, calls, err := loop.Run(context.Background(), entity.UserContext{}, []entity.ServiceCatalogEntry{{Name: "복지상담"}})
	require.NoError(t, err)
	assert.Equal(t, MaxRetries+1, calls)

	// Whatever comes back must already pass the policy check.
	result := policy.ValidateAll(draft.Services)
	assert.True(t, result.IsValid)
	require.Len(t, draft.Services, 1)
	assert.Equal(t, "복지상담", draft.Services[0].Name)
}

func TestLoopPropagatesEngineError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("upstream down")}
	loop := &ValidationLoop{Engine: gen}

	_, calls, err := loop.Run(context.Background(), entity.UserContext{}, []entity.ServiceCatalogEntry{{Name: "이동지원"}})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}
