package pipeline

import (
	"sort"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

// MaxCandidates bounds the reasoning prompt size.
const MaxCandidates = 10

// SelectCandidates filters catalog entries against the user context and
// ranks the survivors: mobility-tagged entries first, newer catalog years
// within the same mobility flag. At most MaxCandidates are returned.
//
// Admission: a disability-tagged entry requires a disabled recipient, a
// low-income-tagged entry requires a low-income recipient. Entries with
// neither flag are universally admissible.
func SelectCandidates(uctx entity.UserContext, entries []entity.ServiceCatalogEntry) []entity.ServiceCatalogEntry {
	var admitted []entity.ServiceCatalogEntry
	for _, e := range entries {
		if e.Tags.Disability && uctx.RecipientType != constants.RecipientDisabled {
			continue
		}
		if e.Tags.LowIncome && uctx.RecipientType != constants.RecipientLowIncome {
			continue
		}
		admitted = append(admitted, e)
	}

	sort.SliceStable(admitted, func(i, j int) bool {
		if admitted[i].Tags.Mobility != admitted[j].Tags.Mobility {
			return admitted[i].Tags.Mobility
		}
		return admitted[i].Year > admitted[j].Year
	})

	if len(admitted) > MaxCandidates {
		admitted = admitted[:MaxCandidates]
	}
	return admitted
}
