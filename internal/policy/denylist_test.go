package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seongmin-dev/welfare-report/internal/entity"
)

func TestCheckService(t *testing.T) {
	tests := []struct {
		name    string
		svc     entity.Recommendation
		invalid bool
	}{
		{
			name:    "clean mobility service passes",
			svc:     entity.Recommendation{Name: "이동지원", Reason: "이동 패턴 기반 추천"},
			invalid: false,
		},
		{
			name:    "keyword in name",
			svc:     entity.Recommendation{Name: "차량보험 지원", Reason: "보험료 할인"},
			invalid: true,
		},
		{
			name:    "keyword in reason",
			svc:     entity.Recommendation{Name: "교통비 지원", Reason: "자동차 보험 가입자 대상"},
			invalid: true,
		},
		{
			name:    "spaced compound phrase",
			svc:     entity.Recommendation{Name: "면세 혜택", Reason: "운전 면허 소지자 대상"},
			invalid: true,
		},
		{
			name:    "english keyword is case-insensitive",
			svc:     entity.Recommendation{Name: "Fuel Subsidy", Reason: "for car owners"},
			invalid: true,
		},
		{
			name:    "english compound with hyphen",
			svc:     entity.Recommendation{Name: "tax relief", Reason: "driver's licence holders"},
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.invalid, CheckService(tt.svc).IsInvalid)
		})
	}
}

func TestValidateAllPartitions(t *testing.T) {
	services := []entity.Recommendation{
		{Name: "이동지원", Reason: "이동 패턴 기반"},
		{Name: "차량보험", Reason: "자동차 보험 지원"},
		{Name: "복지상담", Reason: "맞춤 상담 제공"},
	}

	result := ValidateAll(services)
	assert.False(t, result.IsValid)
	require.Len(t, result.ValidServices, 2)
	require.Len(t, result.InvalidServices, 1)
	assert.Equal(t, "차량보험", result.InvalidServices[0].Name)
	assert.Contains(t, result.Reasons, "차량보험")
}

func TestValidateAllEmpty(t *testing.T) {
	result := ValidateAll(nil)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.InvalidServices)
}
