package pipeline

import (
	"fmt"

	"github.com/seongmin-dev/welfare-report/constants"
	"github.com/seongmin-dev/welfare-report/internal/entity"
)

var fallbackRiskText = map[constants.Trend]string{
	constants.TrendIncrease: "최근 이동량이 증가하고 있습니다. 무리한 장거리 이동 시 배터리 잔량에 유의하세요.",
	constants.TrendDecrease: "최근 이동량이 감소했습니다. 외출 빈도가 줄었다면 가까운 복지 서비스 이용을 권장합니다.",
	constants.TrendStable:   "최근 이동량이 안정적으로 유지되고 있습니다.",
}

var fallbackTrendLabel = map[constants.Trend]string{
	constants.TrendIncrease: "증가",
	constants.TrendDecrease: "감소",
	constants.TrendStable:   "안정",
}

// BuildFallback is the deterministic, network-free report builder used when
// reasoning is unavailable, empty, or exhausted. It never fails for any
// well-formed input, including an empty candidate list.
func BuildFallback(uctx entity.UserContext, candidates []entity.ServiceCatalogEntry) entity.Report {
	trend := uctx.Stats.Trend
	risk, ok := fallbackRiskText[trend]
	if !ok {
		trend = constants.TrendStable
		risk = fallbackRiskText[constants.TrendStable]
	}

	services := make([]entity.Recommendation, 0, 3)
	for i, c := range candidates {
		if i >= 3 {
			break
		}
		category := constants.CategoryWelfare
		if c.Tags.Mobility {
			category = constants.CategoryMobility
		}
		services = append(services, entity.Recommendation{
			Name:     c.Name,
			Reason:   fmt.Sprintf("%s에서 제공하는 서비스로, 회원님의 이용 조건에 해당되어 추천합니다.", c.Ministry),
			Category: category,
			Link:     c.Link,
		})
	}

	return entity.Report{
		UserID:           uctx.UserID,
		Summary:          fmt.Sprintf("최근 7일간 이동 거리는 %.1fkm이며, 이동 추세는 %s 상태입니다.", uctx.Stats.WeeklyKm, fallbackTrendLabel[trend]),
		Risk:             risk,
		Services:         services,
		IsFallback:       true,
		Metadata:         uctx.Stats,
		GenerationMethod: entity.GenerationMethodFallback,
	}
}
