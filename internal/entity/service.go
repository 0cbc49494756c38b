package entity

import "github.com/seongmin-dev/welfare-report/constants"

// ServiceTags is the capability-tag set derived from a catalog row's free text.
type ServiceTags struct {
	AgeGroup   constants.AgeGroup `json:"age_group"`
	Mobility   bool               `json:"mobility"`
	Disability bool               `json:"disability"`
	LowIncome  bool               `json:"low_income"`
}

// ServiceCatalogEntry is one normalized government service record. Entries are
// loaded once and read-only afterward; safe to share across concurrent runs.
type ServiceCatalogEntry struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Link     string      `json:"link"`
	Summary  string      `json:"summary"`
	Ministry string      `json:"ministry"`
	Year     int         `json:"year"`
	Tags     ServiceTags `json:"tags"`
}
