package userctx

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
	"github.com/seongmin-dev/welfare-report/internal/repository"
	"github.com/seongmin-dev/welfare-report/internal/telemetry"
)

// MileageFetcher is the telemetry surface the builder depends on.
type MileageFetcher interface {
	FetchRecentMileage(ctx context.Context, sensorID string, days int, today time.Time) (telemetry.MileageSummary, error)
}

// Window sizes for the two history lookups.
const (
	DefaultMileageDays = 7
	activityWindowDays = 30
)

// Builder assembles the per-run user context: recipient classification,
// 30-day activity counts and the mileage trend of the trailing week.
type Builder struct {
	Profiles    repository.ProfileRepository
	Activity    repository.ActivityRepository
	Telemetry   MileageFetcher
	MileageDays int
	Log         *slog.Logger
	Now         func() time.Time
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Build resolves the profile and derives the context. Telemetry failures
// degrade to zeroed stats; a missing profile is a hard error because nothing
// downstream can run without a recipient classification.
func (b *Builder) Build(ctx context.Context, userID string) (entity.UserContext, error) {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}

	profile, err := b.Profiles.GetByUserID(ctx, userID)
	if err != nil {
		return entity.UserContext{}, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		return entity.UserContext{}, fmt.Errorf("profile not found for user %s", userID)
	}

	uctx := entity.UserContext{
		UserID:        userID,
		RecipientType: profile.RecipientType,
		District:      profile.District,
		Stats:         entity.MobilityStats{Trend: constants.TrendStable},
	}

	sensorID := ""
	if profile.SensorID != nil {
		sensorID = strings.TrimSpace(*profile.SensorID)
	}
	uctx.HasSensor = sensorID != ""

	if uctx.HasSensor {
		days := b.MileageDays
		if days <= 0 {
			days = DefaultMileageDays
		}
		summary, err := b.Telemetry.FetchRecentMileage(ctx, sensorID, days, b.now())
		if err != nil {
			// Telemetry outages must not fail the task.
			log.Warn("userctx.telemetry_degraded", "user_id", userID, "error", err)
		} else {
			uctx.Stats.WeeklyKm = summary.TotalKm
			uctx.Stats.AvgDailyKm = summary.AvgDailyKm
			uctx.Stats.Trend = summary.Trend
		}
	}

	if profile.VehicleID != nil && *profile.VehicleID != "" {
		repairs, selfChecks, err := b.countRecentActivity(ctx, *profile.VehicleID)
		if err != nil {
			return entity.UserContext{}, fmt.Errorf("load activity history: %w", err)
		}
		uctx.Stats.RecentRepairs = repairs
		uctx.Stats.RecentSelfChecks = selfChecks
	}

	log.Info("userctx.built",
		"user_id", userID,
		"recipient_type", string(uctx.RecipientType),
		"has_sensor", uctx.HasSensor,
		"weekly_km", uctx.Stats.WeeklyKm,
		"trend", string(uctx.Stats.Trend),
	)
	return uctx, nil
}

// countRecentActivity fetches all records for the vehicle and filters the
// trailing window client-side; the store has no compound (vehicle, date)
// index. Acceptable at expected data scale.
func (b *Builder) countRecentActivity(ctx context.Context, vehicleID string) (repairs, selfChecks int, err error) {
	records, err := b.Activity.ListForVehicle(ctx, vehicleID)
	if err != nil {
		return 0, 0, err
	}
	cutoff := b.now().AddDate(0, 0, -activityWindowDays)
	for _, rec := range records {
		if rec.OccurredAt.Before(cutoff) {
			continue
		}
		switch rec.Type {
		case entity.ActivityRepair:
			repairs++
		case entity.ActivitySelfCheck:
			selfChecks++
		}
	}
	return repairs, selfChecks, nil
}
