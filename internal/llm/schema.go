package llm

// BuildReportJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is passed to the reasoning service as an output constraint
// and used locally to validate the response. Candidate-name membership is
// deliberately not encoded here: out-of-candidate names are dropped during
// post-processing rather than failing the whole response.
func BuildReportJSONSchema() map[string]any {
	serviceItem := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"name":   map[string]any{"type": "string", "minLength": 1},
			"reason": map[string]any{"type": "string", "minLength": 1},
		},
		"required": []string{"name", "reason"},
	}
	serviceArray := map[string]any{
		"type":     "array",
		"maxItems": 3,
		"items":    serviceItem,
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"summary":           map[string]any{"type": "string", "minLength": 1},
			"risk":              map[string]any{"type": "string", "minLength": 1},
			"advice":            map[string]any{"type": "string", "minLength": 1},
			"mobility_services": serviceArray,
			"welfare_services":  serviceArray,
		},
		"required": []string{"summary", "risk", "advice"},
	}
}
