package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/llm"
)

type fakeTaskStates struct {
	processing []string
	completed  map[string]entity.TaskResult
	failed     map[string]string
}

func newFakeTaskStates() *fakeTaskStates {
	return &fakeTaskStates{
		completed: map[string]entity.TaskResult{},
		failed:    map[string]string{},
	}
}

func (f *fakeTaskStates) Create(context.Context, *entity.Task) error { return nil }
func (f *fakeTaskStates) FindActiveForUser(context.Context, string, time.Time) (*entity.Task, error) {
	return nil, nil
}
func (f *fakeTaskStates) GetByID(context.Context, string) (*entity.Task, error) { return nil, nil }
func (f *fakeTaskStates) LatestForUser(context.Context, string) (*entity.Task, error) {
	return nil, nil
}
func (f *fakeTaskStates) MarkQueued(context.Context, string) error { return nil }
func (f *fakeTaskStates) MarkProcessing(_ context.Context, taskID string) error {
	f.processing = append(f.processing, taskID)
	return nil
}
func (f *fakeTaskStates) MarkCompleted(_ context.Context, taskID string, result entity.TaskResult) error {
	f.completed[taskID] = result
	return nil
}
func (f *fakeTaskStates) MarkFailed(_ context.Context, taskID string, message string) error {
	f.failed[taskID] = message
	return nil
}

type fakeReportStore struct {
	byUser    map[string]*entity.Report
	upsertErr error
}

func newFakeReportStore() *fakeReportStore {
	return &fakeReportStore{byUser: map[string]*entity.Report{}}
}

func (f *fakeReportStore) Upsert(_ context.Context, report *entity.Report) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	cp := *report
	f.byUser[report.UserID] = &cp
	return nil
}

func (f *fakeReportStore) GetByUserID(_ context.Context, userID string) (*entity.Report, error) {
	return f.byUser[userID], nil
}

type fakeBuilder struct {
	uctx entity.UserContext
	err  error
}

func (f *fakeBuilder) Build(context.Context, string) (entity.UserContext, error) {
	return f.uctx, f.err
}

type staticCatalog []entity.ServiceCatalogEntry

func (c staticCatalog) Entries() []entity.ServiceCatalogEntry { return c }

type recordingNotifier struct {
	completions    []string
	failures       []string
	guardianAlerts []constants.RiskType
}

func (n *recordingNotifier) NotifyCompletion(_ context.Context, userID string) {
	n.completions = append(n.completions, userID)
}
func (n *recordingNotifier) NotifyFailure(_ context.Context, userID string, _ string) {
	n.failures = append(n.failures, userID)
}
func (n *recordingNotifier) NotifyGuardians(_ context.Context, _ string, riskType constants.RiskType) {
	n.guardianAlerts = append(n.guardianAlerts, riskType)
}

type staticGenerator struct {
	draft llm.ReportDraft
	err   error
}

func (g *staticGenerator) Generate(context.Context, entity.UserContext, []entity.ServiceCatalogEntry) (llm.ReportDraft, []byte, error) {
	return g.draft, []byte(`{}`), g.err
}

func newProcessor(tasks *fakeTaskStates, reports *fakeReportStore, builder *fakeBuilder, cat staticCatalog, gen llm.Generator, notifier *recordingNotifier) *Processor {
	return &Processor{
		Tasks:    tasks,
		Reports:  reports,
		Builder:  builder,
		Catalog:  cat,
		Loop:     &ValidationLoop{Engine: gen},
		Notifier: notifier,
	}
}

var payload = entity.WorkPayload{TaskID: "rpt-u1-1", UserID: "u1"}

func TestProcessorNoCandidatesProducesFallback(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{uctx: entity.UserContext{
		UserID:        "u1",
		RecipientType: constants.RecipientGeneral,
		Stats:         entity.MobilityStats{Trend: constants.TrendStable},
	}}
	// The only entry is disability-gated, so a general recipient admits nothing.
	cat := staticCatalog{{Name: "장애인전용", Tags: entity.ServiceTags{Disability: true}}}
	gen := &staticGenerator{err: errors.New("must not be called")}

	p := newProcessor(tasks, reports, builder, cat, gen, notifier)
	require.NoError(t, p.Handle(context.Background(), payload))

	report := reports.byUser["u1"]
	require.NotNil(t, report)
	assert.True(t, report.IsFallback)
	assert.Equal(t, constants.TrendStable, report.Metadata.Trend)
	assert.Equal(t, 1, report.Version)
	require.NotNil(t, report.PerformanceMetrics)
	assert.Zero(t, report.PerformanceMetrics.ReasoningCalls)

	result, ok := tasks.completed[payload.TaskID]
	require.True(t, ok)
	assert.True(t, result.Success)
	assert.True(t, result.IsFallback)
	assert.Equal(t, []string{"u1"}, notifier.completions)
	assert.Empty(t, notifier.failures)
}

func TestProcessorReasoningErrorDegradesToFallback(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{uctx: entity.UserContext{UserID: "u1", RecipientType: constants.RecipientGeneral}}
	cat := staticCatalog{{Name: "이동지원", Tags: entity.ServiceTags{Mobility: true}}}
	gen := &staticGenerator{err: errors.New("reasoning unavailable")}

	p := newProcessor(tasks, reports, builder, cat, gen, notifier)
	require.NoError(t, p.Handle(context.Background(), payload))

	report := reports.byUser["u1"]
	require.NotNil(t, report)
	assert.True(t, report.IsFallback)
	require.Len(t, report.Services, 1)
	assert.Equal(t, "이동지원", report.Services[0].Name)

	// The task still completes; reasoning outages never fail it.
	_, completed := tasks.completed[payload.TaskID]
	assert.True(t, completed)
	assert.Empty(t, tasks.failed)
}

func TestProcessorDropsUnknownServiceNames(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{uctx: entity.UserContext{UserID: "u1", RecipientType: constants.RecipientGeneral}}
	cat := staticCatalog{{Name: "이동지원", Link: "https://mobility", Tags: entity.ServiceTags{Mobility: true}}}
	gen := &staticGenerator{draft: llm.ReportDraft{
		Summary: "요약",
		Risk:    "위험",
		Services: []entity.Recommendation{
			{Name: "이동지원", Reason: "이동 패턴 기반"},
			{Name: "존재하지않는서비스", Reason: "추천"},
		},
	}}

	p := newProcessor(tasks, reports, builder, cat, gen, notifier)
	require.NoError(t, p.Handle(context.Background(), payload))

	report := reports.byUser["u1"]
	require.NotNil(t, report)
	assert.False(t, report.IsFallback)
	assert.Equal(t, entity.GenerationMethodLLM, report.GenerationMethod)
	require.Len(t, report.Services, 1)
	assert.Equal(t, "이동지원", report.Services[0].Name)
	// The link comes from the catalog, not the draft.
	assert.Equal(t, "https://mobility", report.Services[0].Link)
	assert.Equal(t, 1, report.PerformanceMetrics.ReasoningCalls)
}

func TestProcessorBuildFailureFailsTask(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{err: errors.New("profile not found")}

	p := newProcessor(tasks, reports, builder, staticCatalog{}, &staticGenerator{}, notifier)
	err := p.Handle(context.Background(), payload)
	require.Error(t, err)

	assert.Contains(t, tasks.failed, payload.TaskID)
	assert.Empty(t, tasks.completed)
	assert.Empty(t, reports.byUser)
	assert.Equal(t, []string{"u1"}, notifier.failures)
}

func TestProcessorUpsertFailureFailsTask(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	reports.upsertErr = errors.New("db down")
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{uctx: entity.UserContext{UserID: "u1", RecipientType: constants.RecipientGeneral}}

	p := newProcessor(tasks, reports, builder, staticCatalog{}, &staticGenerator{}, notifier)
	err := p.Handle(context.Background(), payload)
	require.Error(t, err)

	assert.Contains(t, tasks.failed, payload.TaskID)
	assert.Empty(t, tasks.completed)
}

func TestProcessorDecreasingTrendAlertsGuardians(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{uctx: entity.UserContext{
		UserID:        "u1",
		RecipientType: constants.RecipientGeneral,
		Stats:         entity.MobilityStats{Trend: constants.TrendDecrease},
	}}

	p := newProcessor(tasks, reports, builder, staticCatalog{}, &staticGenerator{}, notifier)
	require.NoError(t, p.Handle(context.Background(), payload))
	assert.Equal(t, []constants.RiskType{constants.RiskActivity}, notifier.guardianAlerts)

	// A stable trend raises no guardian alert.
	quiet := &recordingNotifier{}
	builder.uctx.Stats.Trend = constants.TrendStable
	p2 := newProcessor(newFakeTaskStates(), newFakeReportStore(), builder, staticCatalog{}, &staticGenerator{}, quiet)
	require.NoError(t, p2.Handle(context.Background(), payload))
	assert.Empty(t, quiet.guardianAlerts)
}

func TestProcessorVersionIncrements(t *testing.T) {
	tasks := newFakeTaskStates()
	reports := newFakeReportStore()
	reports.byUser["u1"] = &entity.Report{UserID: "u1", Version: 4}
	notifier := &recordingNotifier{}
	builder := &fakeBuilder{uctx: entity.UserContext{UserID: "u1", RecipientType: constants.RecipientGeneral}}

	p := newProcessor(tasks, reports, builder, staticCatalog{}, &staticGenerator{}, notifier)
	require.NoError(t, p.Handle(context.Background(), payload))
	assert.Equal(t, 5, reports.byUser["u1"].Version)
}
