package entity

import (
	"time"

	"github.com/seongmin-dev/welfare-report/constants"
)

// MobilityStats is the sensor-derived slice of a user context. It is embedded
// into the persisted report as metadata.
type MobilityStats struct {
	WeeklyKm         float64         `json:"weekly_km"`
	AvgDailyKm       float64         `json:"avg_daily_km"`
	Trend            constants.Trend `json:"trend"`
	RecentRepairs    int             `json:"recent_repairs"`
	RecentSelfChecks int             `json:"recent_self_checks"`
}

// UserContext is assembled fresh per task run and never persisted standalone.
type UserContext struct {
	UserID        string                  `json:"user_id"`
	RecipientType constants.RecipientType `json:"recipient_type"`
	District      string                  `json:"district"`
	HasSensor     bool                    `json:"has_sensor"`
	Stats         MobilityStats           `json:"stats"`
}

// Recommendation is one service suggested by the reasoning step, after
// policy filtering and link cross-referencing.
type Recommendation struct {
	Name     string                           `json:"name"`
	Reason   string                           `json:"reason"`
	Category constants.RecommendationCategory `json:"category"`
	Link     string                           `json:"link,omitempty"`
}

// PerformanceMetrics captures how a report was produced.
type PerformanceMetrics struct {
	LatencyMs      int64 `json:"latency_ms"`
	ReasoningCalls int   `json:"reasoning_calls"`
}

// Report is the persisted result of one run. One report per user,
// overwritten on every completed run.
type Report struct {
	UserID             string              `json:"user_id"`
	Summary            string              `json:"summary"`
	Risk               string              `json:"risk"`
	Advice             string              `json:"advice,omitempty"`
	Services           []Recommendation    `json:"services"`
	IsFallback         bool                `json:"is_fallback"`
	Metadata           MobilityStats       `json:"metadata"`
	Version            int                 `json:"version"`
	GenerationMethod   string              `json:"generation_method"`
	PerformanceMetrics *PerformanceMetrics `json:"performance_metrics,omitempty"`
	GeneratedAt        time.Time           `json:"generated_at"`
}

// Generation methods recorded on Report.GenerationMethod.
const (
	GenerationMethodLLM      = "llm"
	GenerationMethodFallback = "fallback"
)
