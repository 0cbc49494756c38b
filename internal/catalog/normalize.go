package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// RawServiceRow is one unparsed catalog row as it appears in the source file.
// Target and Category carry free text that normalization maps onto tags.
type RawServiceRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Link     string `json:"link"`
	Summary  string `json:"summary"`
	Ministry string `json:"ministry"`
	Year     string `json:"year"`
	Target   string `json:"target"`
	Category string `json:"category"`
}

// Keyword sets for tag derivation. The source rows mix Korean and English
// labels, so both are matched.
var (
	elderKeywords     = []string{"노인", "어르신", "고령", "elder", "senior"}
	childKeywords     = []string{"아동", "어린이", "청소년", "child", "youth"}
	adultKeywords     = []string{"성인", "청년", "adult"}
	mobilityKeywords  = []string{"이동", "교통", "보행", "휠체어", "보장구", "mobility", "transport"}
	disabilityKeyword = []string{"장애", "disability", "disabled"}
	lowIncomeKeywords = []string{"저소득", "기초생활", "차상위", "low-income", "low income"}
)

// NormalizeTags derives the capability-tag set from a row's free text.
// Age-group checks are ordered: elder wins over child, child over adult,
// and anything unmatched targets all ages.
func NormalizeTags(text string) entity.ServiceTags {
	lower := strings.ToLower(text)

	tags := entity.ServiceTags{AgeGroup: constants.AgeGroupAll}
	switch {
	case containsAny(lower, elderKeywords):
		tags.AgeGroup = constants.AgeGroupElder
	case containsAny(lower, childKeywords):
		tags.AgeGroup = constants.AgeGroupChild
	case containsAny(lower, adultKeywords):
		tags.AgeGroup = constants.AgeGroupAdult
	}
	tags.Mobility = containsAny(lower, mobilityKeywords)
	tags.Disability = containsAny(lower, disabilityKeyword)
	tags.LowIncome = containsAny(lower, lowIncomeKeywords)
	return tags
}

// NormalizeRow turns a raw row into a catalog entry. Rows without a name are
// rejected; rows without an id get a positional one.
func NormalizeRow(raw RawServiceRow, position int) (entity.ServiceCatalogEntry, error) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return entity.ServiceCatalogEntry{}, fmt.Errorf("row %d: missing service name", position)
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = fmt.Sprintf("svc-%04d", position)
	}

	year := 0
	if y := strings.TrimSpace(raw.Year); y != "" {
		if parsed, err := strconv.Atoi(y); err == nil {
			year = parsed
		}
	}

	return entity.ServiceCatalogEntry{
		ID:       id,
		Name:     name,
		Link:     strings.TrimSpace(raw.Link),
		Summary:  strings.TrimSpace(raw.Summary),
		Ministry: strings.TrimSpace(raw.Ministry),
		Year:     year,
		Tags:     NormalizeTags(name + " " + raw.Summary + " " + raw.Target + " " + raw.Category),
	}, nil
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
