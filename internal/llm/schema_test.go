package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportSchemaAcceptsWellFormedReport(t *testing.T) {
	schema := BuildReportJSONSchema()
	doc := []byte(`{
  "summary": "요약",
  "risk": "위험",
  "advice": "조언",
  "mobility_services": [{"name": "이동지원", "reason": "이동 패턴 기반"}],
  "welfare_services": []
}`)
	require.NoError(t, ValidateJSONAgainstSchema(schema, doc))
}

func TestReportSchemaRejections(t *testing.T) {
	schema := BuildReportJSONSchema()

	tests := []struct {
		name string
		doc  string
	}{
		{"missing advice", `{"summary": "a", "risk": "b"}`},
		{"empty summary", `{"summary": "", "risk": "b", "advice": "c"}`},
		{"extra field", `{"summary": "a", "risk": "b", "advice": "c", "bonus": 1}`},
		{"too many services", `{"summary": "a", "risk": "b", "advice": "c",
			"mobility_services": [
				{"name": "1", "reason": "r"}, {"name": "2", "reason": "r"},
				{"name": "3", "reason": "r"}, {"name": "4", "reason": "r"}]}`},
		{"service missing reason", `{"summary": "a", "risk": "b", "advice": "c",
			"welfare_services": [{"name": "1"}]}`},
		{"not json", `hello`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(tt.doc)))
		})
	}
}
