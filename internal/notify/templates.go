package notify

import "github.com/seongmin-dev/welfare-report/constants"

type template struct {
	Title string
	Body  string
}

var completionTemplate = template{
	Title: "맞춤 복지 리포트 도착",
	Body:  "새로운 이동·복지 리포트가 준비되었습니다. 앱에서 확인해 보세요.",
}

var failureTemplate = template{
	Title: "리포트 생성 실패",
	Body:  "리포트를 생성하지 못했습니다. 잠시 후 다시 시도해 주세요.",
}

// Guardian alert templates keyed by risk type, with a generic fallback for
// unknown types.
var guardianTemplates = map[constants.RiskType]template{
	constants.RiskBattery: {
		Title: "보호 대상자 배터리 주의",
		Body:  "보호 대상자의 이동 기기 배터리 상태를 확인해 주세요.",
	},
	constants.RiskActivity: {
		Title: "보호 대상자 활동 변화",
		Body:  "보호 대상자의 최근 이동 활동에 변화가 감지되었습니다.",
	},
	constants.RiskRoute: {
		Title: "보호 대상자 이동 경로 알림",
		Body:  "보호 대상자가 평소와 다른 경로로 이동했습니다.",
	},
	constants.RiskMaintenance: {
		Title: "보호 대상자 기기 점검 필요",
		Body:  "보호 대상자의 이동 기기 점검이 필요합니다.",
	},
}

var guardianGenericTemplate = template{
	Title: "보호 대상자 알림",
	Body:  "보호 대상자 관련 새로운 알림이 있습니다.",
}

func guardianTemplateFor(riskType constants.RiskType) template {
	if t, ok := guardianTemplates[riskType]; ok {
		return t
	}
	return guardianGenericTemplate
}
