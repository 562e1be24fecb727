package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SanitizeInvoice applies lenient repairs to a model response that failed
// strict validation: numeric fields sent as strings are parsed, a missing
// line-item quantity defaults to 1, a missing unit price is derived from
// amount and quantity, nulls are dropped, and the currency code is
// upper-cased. Returns the cleaned JSON plus the repairs applied.
func SanitizeInvoice(raw []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize invoice: decode: %w", err)
	}

	var repaired []string

	for k, v := range m {
		if v == nil {
			delete(m, k)
			repaired = append(repaired, k+"(null)")
		}
	}

	if v, ok := m["currency"].(string); ok {
		up := strings.ToUpper(strings.TrimSpace(v))
		if up != v {
			repaired = append(repaired, "currency(case)")
		}
		m["currency"] = up
	}

	if v, ok := m["total_amount"]; ok {
		if n, fixed, ok := coerceNumber(v); ok {
			m["total_amount"] = n
			if fixed {
				repaired = append(repaired, "total_amount(type)")
			}
		} else {
			delete(m, "total_amount")
			repaired = append(repaired, "total_amount(unparseable)")
		}
	}

	items, _ := m["line_items"].([]any)
	for i, it := range items {
		item, ok := it.(map[string]any)
		if !ok {
			continue
		}
		tag := func(field string) string { return fmt.Sprintf("line_items[%d].%s", i, field) }

		for _, field := range []string{"quantity", "unit_price", "amount"} {
			v, present := item[field]
			if !present || v == nil {
				delete(item, field)
				continue
			}
			if n, fixed, ok := coerceNumber(v); ok {
				item[field] = n
				if fixed {
					repaired = append(repaired, tag(field)+"(type)")
				}
			} else {
				delete(item, field)
				repaired = append(repaired, tag(field)+"(unparseable)")
			}
		}

		qty, hasQty := item["quantity"].(float64)
		if !hasQty || qty == 0 {
			qty = 1
			item["quantity"] = qty
			repaired = append(repaired, tag("quantity")+"(defaulted)")
		}
		if _, hasUnit := item["unit_price"]; !hasUnit {
			if amount, hasAmount := item["amount"].(float64); hasAmount {
				item["unit_price"] = amount / qty
				repaired = append(repaired, tag("unit_price")+"(derived)")
			}
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, repaired, fmt.Errorf("sanitize invoice: encode: %w", err)
	}
	return out, repaired, nil
}

// coerceNumber accepts a JSON number or a numeric string (with currency
// punctuation stripped). The second return reports whether a repair was made.
func coerceNumber(v any) (float64, bool, bool) {
	switch t := v.(type) {
	case float64:
		return t, false, true
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, t)
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false, false
		}
		return n, true, true
	default:
		return 0, false, false
	}
}
