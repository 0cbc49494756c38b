package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

func TestBuildFallbackEmptyCandidates(t *testing.T) {
	uctx := entity.UserContext{
		UserID: "u-1",
		Stats:  entity.MobilityStats{WeeklyKm: 12.5, Trend: constants.TrendStable},
	}

	report := BuildFallback(uctx, nil)
	assert.True(t, report.IsFallback)
	assert.Equal(t, entity.GenerationMethodFallback, report.GenerationMethod)
	assert.Equal(t, "u-1", report.UserID)
	assert.NotNil(t, report.Services)
	assert.Empty(t, report.Services)
	assert.NotEmpty(t, report.Summary)
	assert.NotEmpty(t, report.Risk)
}

func TestBuildFallbackRiskTextPerTrend(t *testing.T) {
	for _, trend := range []constants.Trend{constants.TrendIncrease, constants.TrendDecrease, constants.TrendStable} {
		report := BuildFallback(entity.UserContext{Stats: entity.MobilityStats{Trend: trend}}, nil)
		assert.NotEmpty(t, report.Risk, "trend %s", trend)
	}

	// Unknown trend degrades to the stable text instead of an empty risk.
	weird := BuildFallback(entity.UserContext{Stats: entity.MobilityStats{Trend: constants.Trend("bogus")}}, nil)
	stable := BuildFallback(entity.UserContext{Stats: entity.MobilityStats{Trend: constants.TrendStable}}, nil)
	assert.Equal(t, stable.Risk, weird.Risk)
}

func TestBuildFallbackTakesTopThree(t *testing.T) {
	candidates := []entity.ServiceCatalogEntry{
		{Name: "a", Link: "https://a", Ministry: "보건복지부", Tags: entity.ServiceTags{Mobility: true}},
		{Name: "b", Link: "https://b", Ministry: "국토교통부"},
		{Name: "c", Link: "https://c", Ministry: "보건복지부"},
		{Name: "d", Link: "https://d", Ministry: "보건복지부"},
	}

	report := BuildFallback(entity.UserContext{}, candidates)
	require.Len(t, report.Services, 3)
	assert.Equal(t, "a", report.Services[0].Name)
	assert.Equal(t, "https://a", report.Services[0].Link)
	assert.Equal(t, constants.CategoryMobility, report.Services[0].Category)
	assert.Equal(t, constants.CategoryWelfare, report.Services[1].Category)
	for _, svc := range report.Services {
		assert.NotEmpty(t, svc.Reason)
	}
}
