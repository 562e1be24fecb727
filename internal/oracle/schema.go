package oracle

// BuildVerdictJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is passed to the model as a structured output constraint
// and used locally to validate the response.
func BuildVerdictJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"status": map[string]any{
				"type": "string",
				"enum": []string{"MATCH", "MISMATCH"},
			},
			"analysis": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"field_level_comparison": map[string]any{
				"type":                 "object",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": []string{"status", "analysis", "field_level_comparison"},
	}
}
