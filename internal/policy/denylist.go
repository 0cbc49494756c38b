package policy

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// The denylist covers service modalities that make no sense for powered
// mobility device users: car ownership, fuel, driver licensing.
var denylistKeywords = []string{
	"차량",
	"자동차",
	"주유",
	"유류",
	"운전면허",
	"vehicle",
	"fuel",
	"gasoline",
	"driving license",
}

// Compound phrases that the keyword pass alone would miss or that need
// whitespace tolerance.
var denylistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`자동차\s*보험`),
	regexp.MustCompile(`유류\s*세`),
	regexp.MustCompile(`운전\s*면허`),
	regexp.MustCompile(`fuel[\s-]?tax`),
	regexp.MustCompile(`auto[\s-]?insurance`),
	regexp.MustCompile(`driver'?s[\s-]?licen[cs]e`),
}

// CheckResult is the outcome of a single-service policy check.
type CheckResult struct {
	IsInvalid bool
	Reason    string
}

// CheckService runs the denylist over the service's name and reason,
// case-insensitive.
func CheckService(svc entity.Recommendation) CheckResult {
	text := strings.ToLower(svc.Name + " " + svc.Reason)

	for _, kw := range denylistKeywords {
		if strings.Contains(text, kw) {
			return CheckResult{IsInvalid: true, Reason: fmt.Sprintf("denylisted keyword %q", kw)}
		}
	}
	for _, pat := range denylistPatterns {
		if pat.MatchString(text) {
			return CheckResult{IsInvalid: true, Reason: fmt.Sprintf("denylisted pattern %q", pat.String())}
		}
	}
	return CheckResult{}
}

// ValidationResult partitions a service list into policy-compliant and
// flagged entries.
type ValidationResult struct {
	IsValid         bool
	ValidServices   []entity.Recommendation
	InvalidServices []entity.Recommendation
	Reasons         map[string]string // flagged name -> reason
}

// ValidateAll partitions services; IsValid iff nothing was flagged.
func ValidateAll(services []entity.Recommendation) ValidationResult {
	result := ValidationResult{Reasons: map[string]string{}}
	for _, svc := range services {
		check := CheckService(svc)
		if check.IsInvalid {
			result.InvalidServices = append(result.InvalidServices, svc)
			result.Reasons[svc.Name] = check.Reason
			continue
		}
		result.ValidServices = append(result.ValidServices, svc)
	}
	result.IsValid = len(result.InvalidServices) == 0
	return result
}
