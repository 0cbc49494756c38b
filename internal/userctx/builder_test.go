package userctx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/telemetry"
)

type stubProfiles struct {
	profile *entity.UserProfile
	err     error
}

func (s *stubProfiles) GetByUserID(context.Context, string) (*entity.UserProfile, error) {
	return s.profile, s.err
}

func (s *stubProfiles) RemoveDeviceTokens(context.Context, string, []string) error { return nil }

type stubActivity struct {
	records []entity.ActivityRecord
	err     error
}

func (s *stubActivity) ListForVehicle(context.Context, string) ([]entity.ActivityRecord, error) {
	return s.records, s.err
}

type stubMileage struct {
	summary telemetry.MileageSummary
	err     error
	calls   int
}

func (s *stubMileage) FetchRecentMileage(context.Context, string, int, time.Time) (telemetry.MileageSummary, error) {
	s.calls++
	return s.summary, s.err
}

func strPtr(s string) *string { return &s }

func TestBuildMissingProfileIsHardError(t *testing.T) {
	b := &Builder{Profiles: &stubProfiles{}, Activity: &stubActivity{}, Telemetry: &stubMileage{}}
	_, err := b.Build(context.Background(), "u1")
	assert.Error(t, err)
}

func TestBuildWithoutSensorSkipsTelemetry(t *testing.T) {
	mileage := &stubMileage{}
	b := &Builder{
		Profiles:  &stubProfiles{profile: &entity.UserProfile{UserID: "u1", RecipientType: constants.RecipientGeneral}},
		Activity:  &stubActivity{},
		Telemetry: mileage,
	}

	uctx, err := b.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, uctx.HasSensor)
	assert.Zero(t, mileage.calls)
	assert.Equal(t, constants.TrendStable, uctx.Stats.Trend)
}

func TestBuildBlankSensorIDCountsAsNoSensor(t *testing.T) {
	mileage := &stubMileage{}
	b := &Builder{
		Profiles:  &stubProfiles{profile: &entity.UserProfile{UserID: "u1", SensorID: strPtr("   ")}},
		Activity:  &stubActivity{},
		Telemetry: mileage,
	}

	uctx, err := b.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, uctx.HasSensor)
	assert.Zero(t, mileage.calls)
}

func TestBuildTelemetryFailureDegrades(t *testing.T) {
	b := &Builder{
		Profiles:  &stubProfiles{profile: &entity.UserProfile{UserID: "u1", SensorID: strPtr("snr-1")}},
		Activity:  &stubActivity{},
		Telemetry: &stubMileage{err: errors.New("telemetry down")},
	}

	uctx, err := b.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, uctx.HasSensor)
	assert.Zero(t, uctx.Stats.WeeklyKm)
	assert.Equal(t, constants.TrendStable, uctx.Stats.Trend)
}

func TestBuildWithSensorPopulatesStats(t *testing.T) {
	b := &Builder{
		Profiles: &stubProfiles{profile: &entity.UserProfile{UserID: "u1", SensorID: strPtr("snr-1")}},
		Activity: &stubActivity{},
		Telemetry: &stubMileage{summary: telemetry.MileageSummary{
			TotalKm:    21.7,
			AvgDailyKm: 3.1,
			Trend:      constants.TrendIncrease,
		}},
	}

	uctx, err := b.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 21.7, uctx.Stats.WeeklyKm)
	assert.Equal(t, constants.TrendIncrease, uctx.Stats.Trend)
}

func TestBuildCountsActivityInWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	records := []entity.ActivityRecord{
		{Type: entity.ActivityRepair, OccurredAt: now.AddDate(0, 0, -5)},
		{Type: entity.ActivityRepair, OccurredAt: now.AddDate(0, 0, -45)}, // outside window
		{Type: entity.ActivitySelfCheck, OccurredAt: now.AddDate(0, 0, -10)},
		{Type: entity.ActivitySelfCheck, OccurredAt: now.AddDate(0, 0, -29)},
	}
	b := &Builder{
		Profiles:  &stubProfiles{profile: &entity.UserProfile{UserID: "u1", VehicleID: strPtr("veh-1")}},
		Activity:  &stubActivity{records: records},
		Telemetry: &stubMileage{},
		Now:       func() time.Time { return now },
	}

	uctx, err := b.Build(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, uctx.Stats.RecentRepairs)
	assert.Equal(t, 2, uctx.Stats.RecentSelfChecks)
}

func TestBuildActivityFailureIsHardError(t *testing.T) {
	b := &Builder{
		Profiles:  &stubProfiles{profile: &entity.UserProfile{UserID: "u1", VehicleID: strPtr("veh-1")}},
		Activity:  &stubActivity{err: errors.New("db down")},
		Telemetry: &stubMileage{},
	}

	_, err := b.Build(context.Background(), "u1")
	assert.Error(t, err)
}
