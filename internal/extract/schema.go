package extract

// BuildInvoiceJSONSchema returns the structured-output constraint for invoice
// extraction as a generic map, shared between the model prompt and local
// validation. Header fields are nullable on purpose: "not found" must survive
// the round trip as an absent field, not an empty string.
func BuildInvoiceJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []string{"string", "null"}}
	nullableNumber := map[string]any{"type": []string{"number", "null"}}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"supplier":              nullableString,
			"supplier_invoice_no":   nullableString,
			"supplier_invoice_date": nullableString,
			"due_date":              nullableString,
			"job_reference":         nullableString,
			"mbl_no":                nullableString,
			"hbl_no":                nullableString,
			"customer_name":         nullableString,
			"currency": map[string]any{
				"type":      "string",
				"minLength": 3,
				"maxLength": 3,
			},
			"total_amount": nullableNumber,
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"quantity":    map[string]any{"type": "number"},
						"unit_price":  nullableNumber,
						"amount":      map[string]any{"type": "number"},
					},
					"required": []string{"description", "amount"},
				},
			},
		},
		"required": []string{"currency", "line_items"},
	}
}
