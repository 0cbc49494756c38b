package constants

import "strings"

// RecipientType classifies a user for service admission rules.
type RecipientType string

const (
	RecipientGeneral   RecipientType = "general"
	RecipientDisabled  RecipientType = "disabled"
	RecipientLowIncome RecipientType = "lowIncome"
)

// Trend is the 3-way classification of recent mobility distance relative to
// the prior period.
type Trend string

const (
	TrendIncrease Trend = "increase"
	TrendDecrease Trend = "decrease"
	TrendStable   Trend = "stable"
)

// RecommendationCategory tags a recommended service as mobility- or
// welfare-oriented.
type RecommendationCategory string

const (
	CategoryMobility RecommendationCategory = "mobility"
	CategoryWelfare  RecommendationCategory = "welfare"
)

// AgeGroup is the age bracket a catalog entry targets.
type AgeGroup string

const (
	AgeGroupElder AgeGroup = "elder"
	AgeGroupAdult AgeGroup = "adult"
	AgeGroupChild AgeGroup = "child"
	AgeGroupAll   AgeGroup = "all"
)

// RiskType keys the guardian notification template map.
type RiskType string

const (
	RiskBattery     RiskType = "battery"
	RiskActivity    RiskType = "activity"
	RiskRoute       RiskType = "route"
	RiskMaintenance RiskType = "maintenance"
)

// CanonicalizeCategory maps free-text category labels from the reasoning
// service onto the two stable values. Anything unrecognized falls back to
// welfare.
func CanonicalizeCategory(input string) (RecommendationCategory, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	switch normalized {
	case "mobility", "transport", "transportation":
		return CategoryMobility, true
	case "welfare", "benefit", "support":
		return CategoryWelfare, true
	}
	return CategoryWelfare, false
}
