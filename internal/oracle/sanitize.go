package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SanitizeVerdict repairs the common ways a model bends the verdict schema
// without changing its meaning, so an otherwise sound response can still
// validate:
//   - status is upper-cased and trimmed
//   - field_level_comparison values are coerced to strings
//   - a missing field map becomes an empty object
//   - unknown top-level keys are dropped
//
// It returns the cleaned JSON plus the list of repairs applied.
func SanitizeVerdict(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize verdict: decode: %w", err)
	}

	var repaired []string

	if v, ok := m["status"].(string); ok {
		s := strings.ToUpper(strings.TrimSpace(v))
		if s != v {
			repaired = append(repaired, "status(case)")
		}
		m["status"] = s
	}

	if v, ok := m["analysis"].(string); ok {
		m["analysis"] = strings.TrimSpace(v)
	}

	switch fl := m["field_level_comparison"].(type) {
	case map[string]any:
		coerced := make(map[string]string, len(fl))
		for k, v := range fl {
			switch t := v.(type) {
			case string:
				coerced[k] = t
			case float64, bool:
				coerced[k] = fmt.Sprintf("%v", t)
				repaired = append(repaired, k+"(type)")
			case nil:
				repaired = append(repaired, k+"(null)")
			default:
				// nested object: keep a compact rendering rather than losing it
				b, err := json.Marshal(t)
				if err == nil {
					coerced[k] = string(b)
					repaired = append(repaired, k+"(flattened)")
				}
			}
		}
		m["field_level_comparison"] = coerced
	case nil:
		m["field_level_comparison"] = map[string]string{}
		repaired = append(repaired, "field_level_comparison(missing)")
	default:
		m["field_level_comparison"] = map[string]string{}
		repaired = append(repaired, "field_level_comparison(type)")
	}

	allowed := map[string]struct{}{
		"status": {}, "analysis": {}, "field_level_comparison": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			repaired = append(repaired, k+"(unknown)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, repaired, fmt.Errorf("sanitize verdict: encode: %w", err)
	}
	return out, repaired, nil
}
