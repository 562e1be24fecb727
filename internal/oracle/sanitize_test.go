package oracle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeVerdict(t *testing.T) {
	t.Run("valid verdict passes through", func(t *testing.T) {
		in := []byte(`{"status":"MATCH","analysis":"all good","field_level_comparison":{"supplier":"MATCH: equal"}}`)
		out, repaired, err := SanitizeVerdict(in)
		require.NoError(t, err)
		assert.Empty(t, repaired)

		var v Verdict
		require.NoError(t, json.Unmarshal(out, &v))
		assert.Equal(t, "MATCH", v.Status)
		assert.Equal(t, "MATCH: equal", v.FieldLevelComparison["supplier"])
	})

	t.Run("lowercase status is repaired", func(t *testing.T) {
		in := []byte(`{"status":" mismatch ","analysis":"x","field_level_comparison":{}}`)
		out, repaired, err := SanitizeVerdict(in)
		require.NoError(t, err)
		assert.Contains(t, repaired, "status(case)")

		var v Verdict
		require.NoError(t, json.Unmarshal(out, &v))
		assert.Equal(t, "MISMATCH", v.Status)
	})

	t.Run("non-string field values are coerced", func(t *testing.T) {
		in := []byte(`{"status":"MATCH","analysis":"x","field_level_comparison":{"total_amount":1500.0,"verified":true}}`)
		out, repaired, err := SanitizeVerdict(in)
		require.NoError(t, err)
		assert.NotEmpty(t, repaired)

		var v Verdict
		require.NoError(t, json.Unmarshal(out, &v))
		assert.Equal(t, "1500", v.FieldLevelComparison["total_amount"])
		assert.Equal(t, "true", v.FieldLevelComparison["verified"])
	})

	t.Run("missing field map becomes empty object", func(t *testing.T) {
		in := []byte(`{"status":"MATCH","analysis":"x"}`)
		out, repaired, err := SanitizeVerdict(in)
		require.NoError(t, err)
		assert.Contains(t, repaired, "field_level_comparison(missing)")

		var v Verdict
		require.NoError(t, json.Unmarshal(out, &v))
		assert.NotNil(t, v.FieldLevelComparison)
		assert.Empty(t, v.FieldLevelComparison)
	})

	t.Run("unknown top-level keys are dropped", func(t *testing.T) {
		in := []byte(`{"status":"MATCH","analysis":"x","field_level_comparison":{},"confidence":0.9}`)
		out, repaired, err := SanitizeVerdict(in)
		require.NoError(t, err)
		assert.Contains(t, repaired, "confidence(unknown)")

		var m map[string]any
		require.NoError(t, json.Unmarshal(out, &m))
		assert.NotContains(t, m, "confidence")
	})

	t.Run("nested field values are flattened not lost", func(t *testing.T) {
		in := []byte(`{"status":"MATCH","analysis":"x","field_level_comparison":{"supplier":{"status":"MATCH"}}}`)
		out, _, err := SanitizeVerdict(in)
		require.NoError(t, err)

		var v Verdict
		require.NoError(t, json.Unmarshal(out, &v))
		assert.Contains(t, v.FieldLevelComparison["supplier"], "MATCH")
	})

	t.Run("invalid json errors", func(t *testing.T) {
		_, _, err := SanitizeVerdict([]byte(`{"status":`))
		assert.Error(t, err)
	})
}
